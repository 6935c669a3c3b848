package exposure

import "github.com/google/uuid"

// cacheKey identifies a payload in the cache tiers: "context:user:category",
// with "anon" and "all" standing in for absent user/category.
func cacheKey(displayContext string, userID *string, categoryID *uuid.UUID) string {
	user := "anon"
	if userID != nil && *userID != "" {
		user = *userID
	}
	return displayContext + ":" + user + ":" + categoryComponent(categoryID)
}

// slotContext is the durable slot key component: "context|category". The user
// is a separate column on the slot row.
func slotContext(displayContext string, categoryID *uuid.UUID) string {
	return displayContext + "|" + categoryComponent(categoryID)
}

func categoryComponent(categoryID *uuid.UUID) string {
	if categoryID == nil {
		return "all"
	}
	return categoryID.String()
}

func userValue(userID *string) string {
	if userID == nil {
		return ""
	}
	return *userID
}

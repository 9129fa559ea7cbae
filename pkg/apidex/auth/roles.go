package auth

import (
	"github.com/apidex/apidex/pkg/apidex/models"
	"gorm.io/gorm"
)

// Classification is the three-tier privilege level used for every
// authorization decision.
type Classification string

const (
	ClassificationUnauthenticated Classification = "unauthenticated"
	ClassificationUser            Classification = "user"
	ClassificationAdmin           Classification = "admin"
)

// FallbackClassification is what a caller with a valid identity gets when
// the role lookup finds no record or the lookup itself fails. The fallback
// is least privilege, never admin. This is a security policy, not error
// swallowing.
const FallbackClassification = ClassificationUser

// ClassifyCaller resolves a caller identity to a Classification by looking
// up the role record. A zero userID means no identity at all.
func ClassifyCaller(db *gorm.DB, userID uint) Classification {
	if userID == 0 {
		return ClassificationUnauthenticated
	}

	var user models.User
	if err := db.Select("role").First(&user, userID).Error; err != nil {
		return FallbackClassification
	}

	if user.Role == models.UserRoleAdmin {
		return ClassificationAdmin
	}
	return ClassificationUser
}

package social

import (
	"sociogram/backend/internal/models"

	"gorm.io/gorm"
)

// PageSize is the fixed page size used by every paginated list and by the
// page counts embedded in mutation events.
const PageSize = 10

// PageCount returns the number of pages needed for total rows at the given
// page size: ceil division, 0 for an empty collection.
func PageCount(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// UsersPageCount returns the page count of the whole user list.
func UsersPageCount(db *gorm.DB) (int, error) {
	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return PageCount(total, PageSize), nil
}

// PostsPageCount returns the page count of one user's posts.
func PostsPageCount(db *gorm.DB, userID uint) (int, error) {
	var total int64
	if err := db.Model(&models.Post{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, err
	}
	return PageCount(total, PageSize), nil
}

// PostsPageCountForUsers returns the page count of all posts owned by any
// user in ids. An empty set has zero pages.
func PostsPageCountForUsers(db *gorm.DB, ids []uint) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var total int64
	if err := db.Model(&models.Post{}).Where("user_id IN ?", ids).Count(&total).Error; err != nil {
		return 0, err
	}
	return PageCount(total, PageSize), nil
}

package social

import (
	"sociogram/backend/internal/models"

	"gorm.io/gorm"
)

// FriendIDs returns the IDs of every user connected to userID by an ACCEPTED,
// unblocked friendship edge, regardless of which side initiated it. The
// result contains no duplicates and never contains userID itself.
// Soft-deleted edges are excluded by the query.
func FriendIDs(db *gorm.DB, userID uint) ([]uint, error) {
	var edges []models.Friend
	err := db.
		Where("request_user_id = ? OR target_user_id = ?", userID, userID).
		Where("status = ?", models.StatusAccepted).
		Where("block = ?", false).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(edges))
	ids := make([]uint, 0, len(edges))
	for i := range edges {
		other := edges[i].OtherEndpoint(userID)
		if other == userID {
			continue
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}
	return ids, nil
}

// AreFriends reports whether a and b share a live ACCEPTED edge, in either
// direction.
func AreFriends(db *gorm.DB, a, b uint) (bool, error) {
	var count int64
	err := db.Model(&models.Friend{}).
		Where("(request_user_id = ? AND target_user_id = ?) OR (request_user_id = ? AND target_user_id = ?)", a, b, b, a).
		Where("status = ?", models.StatusAccepted).
		Where("block = ?", false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EdgeBetween returns the live friendship edge between a and b in either
// direction, or gorm.ErrRecordNotFound.
func EdgeBetween(db *gorm.DB, a, b uint) (*models.Friend, error) {
	var edge models.Friend
	err := db.
		Where("(request_user_id = ? AND target_user_id = ?) OR (request_user_id = ? AND target_user_id = ?)", a, b, b, a).
		First(&edge).Error
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

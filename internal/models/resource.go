package models

import (
	"time"
)

// ResourceCategory classifies an educational resource.
type ResourceCategory string

const (
	ResourceCategoryTips         ResourceCategory = "tips"
	ResourceCategoryArticles     ResourceCategory = "articles"
	ResourceCategoryVideos       ResourceCategory = "videos"
	ResourceCategoryInfographics ResourceCategory = "infographics"
	ResourceCategoryResearch     ResourceCategory = "research"
	ResourceCategoryGuides       ResourceCategory = "guides"
)

// IsValidResourceCategory checks if the category is one of the fixed set.
func IsValidResourceCategory(c string) bool {
	switch ResourceCategory(c) {
	case ResourceCategoryTips, ResourceCategoryArticles, ResourceCategoryVideos,
		ResourceCategoryInfographics, ResourceCategoryResearch, ResourceCategoryGuides:
		return true
	}
	return false
}

// Like records a user who liked a resource.
type Like struct {
	UserID  string    `bson:"user_id" json:"userId"`
	LikedAt time.Time `bson:"liked_at" json:"likedAt"`
}

// Resource represents an educational resource about plastic-waste reduction.
// Collection: resources
type Resource struct {
	ID          string           `bson:"_id,omitempty" json:"id"`
	Title       string           `bson:"title" json:"title"`
	Description string           `bson:"description" json:"description"`
	Content     string           `bson:"content" json:"content"`
	Category    ResourceCategory `bson:"category" json:"category"`
	Type        string           `bson:"type" json:"type"` // text, video, pdf, image, link
	URL         string           `bson:"url,omitempty" json:"url,omitempty"`
	Thumbnail   string           `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	AuthorID    string           `bson:"author_id" json:"authorId"`
	Status      ModerationStatus `bson:"status" json:"status"`
	Tags        []string         `bson:"tags,omitempty" json:"tags,omitempty"`
	Difficulty  string           `bson:"difficulty" json:"difficulty"` // beginner, intermediate, advanced
	ReadTime    int              `bson:"read_time" json:"readTime"`    // minutes
	Views       int64            `bson:"views" json:"views"`
	Likes       []Like           `bson:"likes,omitempty" json:"likes,omitempty"`
	AdminNotes  string           `bson:"admin_notes,omitempty" json:"adminNotes,omitempty"`
	CreatedAt   time.Time        `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time        `bson:"updated_at" json:"updatedAt"`
}

// HasLike reports whether the user already liked the resource.
func (r *Resource) HasLike(userID string) bool {
	for _, l := range r.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

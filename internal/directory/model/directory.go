package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel defines the base model structure with common fields for the directory package.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;column:id;not null;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"type:timestamptz;column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamptz;column:updated_at;not null" json:"updatedAt"`
}

// BeforeCreate is a GORM hook that is triggered before a new record is created.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID, err = uuid.NewRandom()
		if err != nil {
			return
		}
	}
	base.CreatedAt = time.Now().UTC()
	base.UpdatedAt = time.Now().UTC()
	return
}

// BeforeUpdate is a GORM hook that is triggered before an existing record is updated.
func (base *BaseModel) BeforeUpdate(tx *gorm.DB) (err error) {
	base.UpdatedAt = time.Now().UTC()
	return
}

// User represents a staff member in the user directory.
type User struct {
	BaseModel
	Name     string    `gorm:"type:varchar(255);column:name;not null" json:"name"`       // Display name
	Phone    string    `gorm:"type:varchar(50);column:phone" json:"phone,omitempty"`     // Contact phone number
	CampusID uuid.UUID `gorm:"type:uuid;column:campus_id;not null" json:"campusId"`      // Campus the user belongs to
	Active   bool      `gorm:"type:boolean;column:active;not null;default:true" json:"active"` // Whether the user can act in workflows
}

func (u *User) TableName() string {
	return "users"
}

// Role represents a named role users can be assigned to (e.g. principal, head of canteen).
type Role struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);column:name;not null;unique" json:"name"`
	Description string `gorm:"type:text;column:description" json:"description,omitempty"`
}

func (r *Role) TableName() string {
	return "roles"
}

// Position represents a post in the organizational hierarchy of a campus.
// Positions may form a tree via ParentID. Level is a numeric rank where a
// lower number means a higher rank (1 is the top of the campus).
type Position struct {
	BaseModel
	Name     string     `gorm:"type:varchar(100);column:name;not null" json:"name"`
	CampusID uuid.UUID  `gorm:"type:uuid;column:campus_id;not null" json:"campusId"`
	ParentID *uuid.UUID `gorm:"type:uuid;column:parent_id" json:"parentId,omitempty"` // Optional parent position in the hierarchy
	Level    int        `gorm:"type:int;column:level;not null" json:"level"`          // Numeric rank, lower is higher

	// Relationships
	Parent *Position `gorm:"foreignKey:ParentID;references:ID" json:"-"`
}

func (p *Position) TableName() string {
	return "positions"
}

// UserRole links a user to a role.
type UserRole struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;column:user_id;not null;index" json:"userId"`
	RoleID uuid.UUID `gorm:"type:uuid;column:role_id;not null;index" json:"roleId"`
}

func (ur *UserRole) TableName() string {
	return "user_roles"
}

// UserPosition links a user to a position.
type UserPosition struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;column:user_id;not null;index" json:"userId"`
	PositionID uuid.UUID `gorm:"type:uuid;column:position_id;not null;index" json:"positionId"`
}

func (up *UserPosition) TableName() string {
	return "user_positions"
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Class is a group of students at a campus.
type Class struct {
	BaseModel
	Name     string    `gorm:"type:varchar(100);column:name;not null" json:"name"`
	CampusID uuid.UUID `gorm:"type:uuid;column:campus_id;not null;index" json:"campusId"`

	// Relationships
	Students []Student `gorm:"foreignKey:ClassID;references:ID" json:"students,omitempty"`
}

func (c *Class) TableName() string {
	return "classes"
}

// Student is an enrolled child. Age is always computed from the birthdate at
// evaluation time, never stored.
type Student struct {
	BaseModel
	Name      string    `gorm:"type:varchar(255);column:name;not null" json:"name"`
	ClassID   uuid.UUID `gorm:"type:uuid;column:class_id;not null;index" json:"classId"`
	Birthdate time.Time `gorm:"type:date;column:birthdate;not null" json:"birthdate"`
}

func (s *Student) TableName() string {
	return "students"
}

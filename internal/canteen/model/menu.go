package model

import (
	"time"

	"github.com/google/uuid"
)

// Meal enumerates the meal slots of a canteen day.
type Meal string

const (
	MealBreakfast Meal = "BREAKFAST"
	MealLunch     Meal = "LUNCH"
	MealSnack     Meal = "SNACK"
	MealDinner    Meal = "DINNER"
)

// Menu is a dated plan of dishes for a campus.
type Menu struct {
	BaseModel
	Name      string    `gorm:"type:varchar(255);column:name;not null" json:"name"`
	CampusID  uuid.UUID `gorm:"type:uuid;column:campus_id;not null;index" json:"campusId"`
	StartDate time.Time `gorm:"type:date;column:start_date;not null" json:"startDate"`
	EndDate   time.Time `gorm:"type:date;column:end_date;not null" json:"endDate"`

	// Relationships
	Slots []MenuSlot `gorm:"foreignKey:MenuID;references:ID" json:"slots,omitempty"`
}

func (m *Menu) TableName() string {
	return "menus"
}

// MenuSlot assigns a dish to one (day, meal) of a menu.
type MenuSlot struct {
	BaseModel
	MenuID uuid.UUID `gorm:"type:uuid;column:menu_id;not null;index" json:"menuId"`
	Date   time.Time `gorm:"type:date;column:date;not null" json:"date"`
	Meal   Meal      `gorm:"type:varchar(20);column:meal;not null" json:"meal"`
	DishID uuid.UUID `gorm:"type:uuid;column:dish_id;not null" json:"dishId"`
}

func (s *MenuSlot) TableName() string {
	return "menu_slots"
}

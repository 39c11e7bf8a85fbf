package models

import (
	"time"
)

// User is the persisted user row. Deletes are hard deletes.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:30;not null"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Age       int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime;type:timestamp(0)"`
}

func (User) TableName() string {
	return "users"
}

// UserDTO is the wire representation of a user.
type UserDTO struct {
	ID    uint   `json:"id"`
	Name  string `json:"name" validate:"required,min=2,max=30"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"min=0,max=150"`
}

// ToUser copies the client-settable fields of dto into a new User.
// The ID is left for the store to assign.
func ToUser(dto UserDTO) *User {
	return &User{
		Name:  dto.Name,
		Email: dto.Email,
		Age:   dto.Age,
	}
}

func ToUserDTO(u *User) UserDTO {
	return UserDTO{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Age:   u.Age,
	}
}

func ToUserDTOs(users []User) []UserDTO {
	dtos := make([]UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, ToUserDTO(&users[i]))
	}
	return dtos
}

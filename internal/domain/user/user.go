package user

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public is the outward-facing projection of a User. It has no hash field, so
// nothing built from it can leak one.
type Public struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u User) Public() Public {
	return Public{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user"`
	Password string `json:"password" binding:"required,min=4,max=50,maxbytes=72"`
}

// UpdateUserRequest is a partial update; nil means "leave unchanged".
// Unknown keys, including "id", are ignored by the decoder.
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitnil,notblank,max=100"`
	Email    *string `json:"email" binding:"omitnil,email"`
	Role     *string `json:"role" binding:"omitnil,oneof=admin user"`
	Password *string `json:"password" binding:"omitnil,min=4,max=50,maxbytes=72"`
}

func (r UpdateUserRequest) HasChanges() bool {
	return r.Name != nil || r.Email != nil || r.Role != nil || r.Password != nil
}

// CreateUserInput is what the store needs to create a record.
type CreateUserInput struct {
	Name     string
	Email    string
	Role     string
	Password string
}

type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *string
	Password *string
}

func (r CreateUserRequest) Input() CreateUserInput {
	role := r.Role
	if role == "" {
		role = RoleUser
	}

	return CreateUserInput{
		Name:     r.Name,
		Email:    r.Email,
		Role:     role,
		Password: r.Password,
	}
}

func (r UpdateUserRequest) Input() UpdateUserInput {
	return UpdateUserInput{
		Name:     r.Name,
		Email:    r.Email,
		Role:     r.Role,
		Password: r.Password,
	}
}

func (in UpdateUserInput) Empty() bool {
	return in.Name == nil && in.Email == nil && in.Role == nil && in.Password == nil
}

package model

// Identity is what the session layer needs from a signed-in user.
type Identity interface {
	GetID() int64
}

type User struct {
	ID           int64  `db:"user_id" json:"user_id"`
	Name         string `db:"name" json:"name"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

func (u *User) GetID() int64 { return u.ID }

type Provider struct {
	ID        int64  `db:"provider_id" json:"provider_id"`
	Name      string `db:"name" json:"name"`
	Specialty string `db:"specialty" json:"specialty"`
	Room      string `db:"room" json:"room"`
}

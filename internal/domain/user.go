package domain

type User struct {
	ID       string `db:"id"`
	Username string `db:"username"`
	Email    string `db:"email"`
	Hash     string `db:"password_hash"`
}

// Profile is created together with its user; lookups report absence explicitly.
type Profile struct {
	UserID   string `db:"user_id"`
	IsSeller bool   `db:"is_seller"`
	Phone    string `db:"phone"`
	Address  string `db:"address"`
}

package models

const (
	RoleAdmin    = "admin"
	RoleOperator = "operador"
)

// Operator mirrors usuarios, the back-office staff accounts.
type Operator struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"nome" json:"nome"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"senha_hash" json:"-"`
	Role         string `db:"papel" json:"papel"`
	Active       bool   `db:"ativo" json:"ativo"`
}

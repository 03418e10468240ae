package models

import "time"

// Client mirrors clientes.
type Client struct {
	ID        int64      `db:"id" json:"id"`
	Name      string     `db:"nome" json:"nome"`
	CPF       string     `db:"cpf" json:"cpf"`
	Phone     string     `db:"telefone" json:"telefone"`
	Email     string     `db:"email" json:"email"`
	BirthDate *time.Time `db:"data_nascimento" json:"data_nascimento,omitempty"`
	Address   string     `db:"endereco" json:"endereco"`
	City      string     `db:"cidade" json:"cidade"`
	State     string     `db:"estado" json:"estado"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// ClientInput is the writable part of a client.
type ClientInput struct {
	Name      string     `json:"nome" binding:"required,min=2"`
	CPF       string     `json:"cpf" binding:"omitempty,cpf"`
	Phone     string     `json:"telefone" binding:"required"`
	Email     string     `json:"email" binding:"omitempty,email"`
	BirthDate *time.Time `json:"data_nascimento"`
	Address   string     `json:"endereco"`
	City      string     `json:"cidade"`
	State     string     `json:"estado" binding:"omitempty,len=2"`
}

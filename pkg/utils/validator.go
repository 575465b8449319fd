package utils

// validator.go - валидация входных данных

import (
	"fmt"
	"strings"
)

// base58Alphabet - алфавит base58 (без 0, O, I, l)
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ValidateTokenAddress проверяет формат адреса токена Solana:
// base58, длина 32-44 символа
func ValidateTokenAddress(address string) error {
	if len(address) < 32 || len(address) > 44 {
		return fmt.Errorf("token address must be 32-44 characters, got %d", len(address))
	}

	for _, c := range address {
		if !strings.ContainsRune(base58Alphabet, c) {
			return fmt.Errorf("token address contains invalid character %q", c)
		}
	}

	return nil
}

// ValidateSymbol проверяет тикер токена: 1-16 символов,
// латиница/цифры/$
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if len(symbol) > 16 {
		return fmt.Errorf("symbol must be at most 16 characters, got %d", len(symbol))
	}

	for _, c := range symbol {
		ok := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '$'
		if !ok {
			return fmt.Errorf("symbol contains invalid character %q", c)
		}
	}

	return nil
}

// ValidateUsername проверяет Telegram username: до 32 символов,
// латиница/цифры/подчеркивание. Пустой username допустим.
func ValidateUsername(username string) error {
	if username == "" {
		return nil
	}
	if len(username) > 32 {
		return fmt.Errorf("username must be at most 32 characters, got %d", len(username))
	}

	for _, c := range username {
		ok := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_'
		if !ok {
			return fmt.Errorf("username contains invalid character %q", c)
		}
	}

	return nil
}

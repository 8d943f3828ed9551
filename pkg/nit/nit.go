// Package nit normaliza y valida el NIT colombiano de una empresa.
package nit

import (
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

// ErrInvalid se devuelve cuando el NIT no tiene forma válida o su dígito de verificación no cuadra.
var ErrInvalid = errors.New("nit: inválido")

// pesos del módulo 11 de la DIAN, aplicados de derecha a izquierda sobre la base del NIT.
var weights = [15]int{3, 7, 13, 17, 19, 23, 29, 37, 41, 43, 47, 53, 59, 67, 71}

// CheckDigit calcula el dígito de verificación de base (solo dígitos, hasta 15).
func CheckDigit(base string) (byte, error) {
	if base == "" || len(base) > len(weights) {
		return 0, errors.Wrapf(ErrInvalid, "base de %d dígitos", len(base))
	}
	var sum int
	for i := 0; i < len(base); i++ {
		d := base[len(base)-1-i]
		if d < '0' || d > '9' {
			return 0, errors.Wrapf(ErrInvalid, "carácter %q en la base", d)
		}
		sum += int(d-'0') * weights[i]
	}
	r := sum % 11
	if r <= 1 {
		return byte('0' + r), nil
	}
	return byte('0' + 11 - r), nil
}

// Normalize quita puntos y espacios. Con dígito de verificación ("900.123.456-8") lo valida
// y devuelve "900123456-8"; sin él devuelve solo la base.
func Normalize(taxID string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		if r == '.' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, taxID)
	base, dv, hasDV := strings.Cut(clean, "-")
	if base == "" || strings.TrimFunc(base, unicode.IsDigit) != "" {
		return "", errors.Wrapf(ErrInvalid, "%q", taxID)
	}
	if !hasDV {
		if len(base) > len(weights) {
			return "", errors.Wrapf(ErrInvalid, "%q", taxID)
		}
		return base, nil
	}
	expected, err := CheckDigit(base)
	if err != nil {
		return "", err
	}
	if len(dv) != 1 || dv[0] != expected {
		return "", errors.Wrapf(ErrInvalid, "dígito de verificación de %s: esperado %c, recibido %q", base, expected, dv)
	}
	return base + "-" + dv, nil
}

package circulation

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/yanqian/circulabot/pkg/errors"
)

// StickerCategory is the emissions-verification hologram printed on the
// vehicle. It decides the baseline exemption tier.
type StickerCategory string

const (
	StickerExempt00 StickerCategory = "00"
	StickerExempt0  StickerCategory = "0"
	StickerOne      StickerCategory = "1"
	StickerTwo      StickerCategory = "2"
)

// ParseSticker validates a raw sticker value against the closed set.
func ParseSticker(raw string) (StickerCategory, error) {
	s := StickerCategory(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", apperrors.Wrap("invalid_input",
			fmt.Sprintf("holograma inválido: %q (valores aceptados: 00, 0, 1, 2)", raw), nil)
	}
	return s, nil
}

// Valid reports whether the sticker belongs to the closed set.
func (s StickerCategory) Valid() bool {
	switch s {
	case StickerExempt00, StickerExempt0, StickerOne, StickerTwo:
		return true
	}
	return false
}

// Exempt reports whether the sticker is normally outside the program.
func (s StickerCategory) Exempt() bool {
	return s == StickerExempt00 || s == StickerExempt0
}

// ContingencyLevel is the environmental alert severity published by CAMe.
// Ordered: LevelNone < LevelPhase1 < LevelPhase2.
type ContingencyLevel string

const (
	LevelNone   ContingencyLevel = "ninguna"
	LevelPhase1 ContingencyLevel = "fase_1"
	LevelPhase2 ContingencyLevel = "fase_2"
)

// ParseLevel validates a raw contingency level. The empty string maps to
// LevelNone so callers that omit the field get the no-contingency default.
func ParseLevel(raw string) (ContingencyLevel, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return LevelNone, nil
	}
	l := ContingencyLevel(trimmed)
	if !l.Valid() {
		return "", apperrors.Wrap("invalid_input",
			fmt.Sprintf("nivel de contingencia inválido: %q (valores aceptados: ninguna, fase_1, fase_2)", raw), nil)
	}
	return l, nil
}

// Valid reports whether the level belongs to the closed set.
func (l ContingencyLevel) Valid() bool {
	switch l {
	case LevelNone, LevelPhase1, LevelPhase2:
		return true
	}
	return false
}

// Label returns the display form used in messages ("Fase 1", "Fase 2").
func (l ContingencyLevel) Label() string {
	switch l {
	case LevelPhase1:
		return "Fase 1"
	case LevelPhase2:
		return "Fase 2"
	default:
		return ""
	}
}

// Input is one evaluation request for a single vehicle and date.
type Input struct {
	LastDigit   int
	Sticker     StickerCategory
	Contingency ContingencyLevel
	Date        time.Time
}

// Result is the immutable verdict produced per evaluation. The boolean
// flags are the machine-readable surface; Reason is display-only Spanish.
type Result struct {
	MayDrive                      bool             `json:"mayDrive"`
	BaseRestrictionApplied        bool             `json:"baseRestrictionApplied"`
	ContingencyRestrictionApplied bool             `json:"contingencyRestrictionApplied"`
	ContingencyLevel              ContingencyLevel `json:"contingencyLevel"`
	Weekday                       string           `json:"weekday"`
	Reason                        string           `json:"reason"`
	LastDigit                     int              `json:"lastDigit"`
	Sticker                       StickerCategory  `json:"sticker"`
	Date                          string           `json:"date"`
}

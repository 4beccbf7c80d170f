// Package circulation decides whether a vehicle may drive on a given date
// under Mexico City's Hoy No Circula program, including the extra
// restrictions layered on by an active environmental contingency.
package circulation

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/yanqian/circulabot/pkg/errors"
)

// Evaluate applies the program rules to one vehicle on one date. It is a
// pure function over the constant rule tables: no I/O, safe for concurrent
// callers, and total over every valid input. The only failure mode is a
// validation error (code invalid_input) for an out-of-range digit, an
// unknown sticker, or an unknown contingency level.
func Evaluate(in Input) (Result, error) {
	if in.LastDigit < 0 || in.LastDigit > 9 {
		return Result{}, apperrors.Wrap("invalid_input",
			fmt.Sprintf("el último dígito debe estar entre 0 y 9, se recibió %d", in.LastDigit), nil)
	}
	if !in.Sticker.Valid() {
		return Result{}, apperrors.Wrap("invalid_input",
			fmt.Sprintf("holograma inválido: %q (valores aceptados: 00, 0, 1, 2)", string(in.Sticker)), nil)
	}
	level := in.Contingency
	if level == "" {
		level = LevelNone
	}
	if !level.Valid() {
		return Result{}, apperrors.Wrap("invalid_input",
			fmt.Sprintf("nivel de contingencia inválido: %q", string(in.Contingency)), nil)
	}

	weekday := in.Date.Weekday()
	result := Result{
		ContingencyLevel: level,
		Weekday:          weekdayNames[weekday],
		LastDigit:        in.LastDigit,
		Sticker:          in.Sticker,
		Date:             in.Date.Format("2006-01-02"),
	}

	if in.Sticker.Exempt() {
		// 00/0 stickers only ever rest under Fase 2, and then only on the
		// per-weekday digit set. Fase 1 leaves them untouched.
		if level == LevelPhase2 {
			if digits, ok := phase2ExemptOverride[weekday]; ok && digitIn(in.LastDigit, digits) {
				result.ContingencyRestrictionApplied = true
				result.MayDrive = false
				result.Reason = fmt.Sprintf(
					"Holograma %s: normalmente exento, pero en CONTINGENCIA FASE 2 el %s no circulan placas terminadas en %d.",
					in.Sticker, result.Weekday, in.LastDigit)
				return result, nil
			}
		}
		result.MayDrive = true
		result.Reason = fmt.Sprintf("Holograma %s está exento del programa Hoy No Circula.", in.Sticker)
		return result, nil
	}

	result.BaseRestrictionApplied = baseApplies(in.LastDigit, in.Sticker, in.Date, weekday)
	result.ContingencyRestrictionApplied = contingencyApplies(level, weekday, result.BaseRestrictionApplied)
	result.MayDrive = !result.BaseRestrictionApplied && !result.ContingencyRestrictionApplied
	result.Reason = restrictedReason(result)
	return result, nil
}

// baseApplies checks the standing program for sticker 1/2 vehicles:
// the Monday-Friday digit table, the Saturday rotation for sticker 2,
// and never Sunday.
func baseApplies(digit int, sticker StickerCategory, date time.Time, weekday time.Weekday) bool {
	if digits, ok := weekdayRestrictions[weekday]; ok {
		if digitIn(digit, digits) {
			return true
		}
	}
	if weekday == time.Saturday && sticker == StickerTwo {
		return digitIn(digit, saturdayDigits(date))
	}
	return false
}

// contingencyApplies layers the alert phases on top of the base program
// for sticker 1/2 vehicles. Fase 2 grounds every restricted sticker on
// weekdays regardless of digit; Fase 1 reinforces the base rule without
// adding days, per current CAMe rules.
func contingencyApplies(level ContingencyLevel, weekday time.Weekday, base bool) bool {
	switch level {
	case LevelPhase2:
		return weekday >= time.Monday && weekday <= time.Friday
	case LevelPhase1:
		return base
	default:
		return false
	}
}

func restrictedReason(r Result) string {
	if r.MayDrive {
		return fmt.Sprintf("Placa terminada en %d con holograma %s puede circular el %s sin restricciones.",
			r.LastDigit, r.Sticker, r.Weekday)
	}
	var causes []string
	if r.BaseRestrictionApplied {
		causes = append(causes, "programa Hoy No Circula regular")
	}
	if r.ContingencyRestrictionApplied {
		causes = append(causes, "contingencia ambiental "+strings.ToUpper(r.ContingencyLevel.Label()))
	}
	return fmt.Sprintf("Placa terminada en %d con holograma %s NO CIRCULA el %s por: %s.",
		r.LastDigit, r.Sticker, r.Weekday, strings.Join(causes, ", "))
}

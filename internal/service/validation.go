package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

// NewValidator returns a validator with the portal's enum tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerEnum(v, "student_year", models.StudentYearFirst, models.StudentYearSecond, models.StudentYearThird, models.StudentYearFourth, models.StudentYearGraduate)
	registerEnum(v, "event_type", models.EventAcademic, models.EventCultural, models.EventSports, models.EventSeminar, models.EventWorkshop, models.EventConference, models.EventOther)
	registerEnum(v, "announcement_priority", models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent)
	return v
}

func registerEnum[T ~string](v *validator.Validate, tag string, allowed ...T) {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[string(a)] = struct{}{}
	}
	_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	})
}

func ensureValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		return NewValidator()
	}
	return v
}

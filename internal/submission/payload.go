package submission

import (
	"errors"
	"reflect"
	"strings"

	"dorm-listing-portal/internal/models"

	"github.com/go-playground/validator/v10"
)

// ListingPayload is the listing form as submitted by an owner
type ListingPayload struct {
	Type         models.DormType          `json:"type" validate:"required"`
	MonthlyPrice float64                  `json:"monthly_price" validate:"gte=0,lte=9999"`
	Location     *string                  `json:"location,omitempty"`
	GenderPref   *models.GenderPreference `json:"gender_pref,omitempty"`
	Title        string                   `json:"title" validate:"required,min=6"`
	Description  string                   `json:"description"`
	Rooms        []RoomPayload            `json:"rooms" validate:"required,min=1,dive"`
	Amenities    []string                 `json:"amenities" validate:"required,min=1"`
	Conveniences []string                 `json:"conveniences" validate:"omitempty,dive,min=4"`
}

type RoomPayload struct {
	Name         string `json:"name"`
	TotalBeds    int    `json:"total_beds" validate:"gte=0"`
	OccupiedBeds int    `json:"occupied_beds" validate:"gte=0,ltefield=TotalBeds"`
}

// ImageFile is one attached image. ContentType is detected from Data when empty.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names so errors match what the client sent
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalized is a payload that passed validation, with trimmed text, default
// room names and amenities resolved to the fixed set
type normalized struct {
	ListingPayload
	amenities []models.Amenity
}

func normalize(p ListingPayload) ListingPayload {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	if p.Location != nil {
		loc := strings.TrimSpace(*p.Location)
		if loc == "" {
			p.Location = nil
		} else {
			p.Location = &loc
		}
	}

	rooms := make([]RoomPayload, len(p.Rooms))
	for i, r := range p.Rooms {
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			r.Name = models.DefaultRoomName(i)
		}
		rooms[i] = r
	}
	p.Rooms = rooms

	conveniences := make([]string, len(p.Conveniences))
	for i, c := range p.Conveniences {
		conveniences[i] = strings.TrimSpace(c)
	}
	p.Conveniences = conveniences
	return p
}

// Validate checks every listing invariant that the record store cannot enforce
// on its own. It makes no store calls.
func Validate(payload ListingPayload, images []ImageFile) error {
	_, err := prepare(payload, images)
	return err
}

func prepare(payload ListingPayload, images []ImageFile) (*normalized, error) {
	p := normalize(payload)

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fieldError(verrs[0])
		}
		return nil, &ValidationError{Message: err.Error()}
	}

	if !p.Type.Valid() {
		return nil, &ValidationError{Field: "type", Message: "must be one of Shared, Private"}
	}
	if p.GenderPref != nil && !p.GenderPref.Valid() {
		return nil, &ValidationError{Field: "gender_pref", Message: "must be one of Female Only, Male Only, Both"}
	}

	out := &normalized{ListingPayload: p}
	seen := make(map[models.Amenity]bool, len(p.Amenities))
	for _, raw := range p.Amenities {
		a, ok := models.ParseAmenity(raw)
		if !ok {
			return nil, &ValidationError{Field: "amenities", Message: "unknown amenity " + raw}
		}
		if seen[a] {
			return nil, &ValidationError{Field: "amenities", Message: "duplicate amenity " + string(a)}
		}
		seen[a] = true
		out.amenities = append(out.amenities, a)
	}

	if len(images) == 0 {
		return nil, &ValidationError{Field: "images", Message: "at least one image is required"}
	}
	for _, img := range images {
		if len(img.Data) == 0 {
			return nil, &ValidationError{Field: "images", Message: "image " + img.Filename + " is empty"}
		}
	}

	return out, nil
}

func fieldError(fe validator.FieldError) *ValidationError {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			msg = "must have at least " + fe.Param() + " entries"
		} else {
			msg = "must be at least " + fe.Param() + " characters"
		}
	case "gte":
		msg = "must be at least " + fe.Param()
	case "lte":
		msg = "must be at most " + fe.Param()
	case "ltefield":
		msg = "must not exceed total_beds"
	default:
		msg = "failed " + fe.Tag() + " check"
	}
	return &ValidationError{Field: field, Message: msg}
}

func (n *normalized) listing(id, ownerID string) *models.Listing {
	return &models.Listing{
		ID:           id,
		OwnerID:      ownerID,
		Type:         n.Type,
		MonthlyPrice: n.MonthlyPrice,
		Location:     n.Location,
		GenderPref:   n.GenderPref,
		Title:        n.Title,
		Description:  n.Description,
	}
}

package validation

import (
	"errors"
	"testing"

	"github.com/localink/localink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	BookingID string   `json:"bookingId" validate:"required,uuid"`
	Content   string   `json:"content" validate:"required,max=10"`
	Rating    int      `json:"rating" validate:"min=1,max=5"`
	Status    string   `json:"status" validate:"oneof=CONFIRMED CANCELLED"`
	Tags      []string `json:"tags" validate:"max=2,dive,max=3"`
	Image     string   `json:"image" validate:"omitempty,url"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(sample{
		BookingID: "0b5a3f55-3d0c-4a57-9f31-4e1c3b1d2a10",
		Content:   "hello",
		Rating:    5,
		Status:    "CONFIRMED",
		Tags:      []string{"a", "b"},
	})
	assert.NoError(t, err)
}

func TestStruct_Invalid(t *testing.T) {
	err := Struct(sample{
		BookingID: "not-a-uuid",
		Content:   "this is far too long",
		Rating:    9,
		Status:    "PENDING",
		Tags:      []string{"a", "b", "c"},
		Image:     "nope",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	var verrs Errors
	require.True(t, errors.As(err, &verrs))

	byField := map[string]string{}
	for _, fe := range verrs {
		byField[fe.Field] = fe.Message
	}
	assert.Equal(t, "must be a valid UUID", byField["bookingId"])
	assert.Equal(t, "must be at most 10 characters", byField["content"])
	assert.Equal(t, "must be at most 5", byField["rating"])
	assert.Equal(t, "must be one of [CONFIRMED CANCELLED]", byField["status"])
	assert.Equal(t, "must have at most 2 items", byField["tags"])
	assert.Equal(t, "must be a valid URL", byField["image"])
}

func TestStruct_DiveField(t *testing.T) {
	err := Struct(sample{
		BookingID: "0b5a3f55-3d0c-4a57-9f31-4e1c3b1d2a10",
		Content:   "x",
		Rating:    1,
		Status:    "CANCELLED",
		Tags:      []string{"long-tag"},
	})
	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "tags[0]", verrs[0].Field)
}

func TestField(t *testing.T) {
	err := Field("content", "must not be empty")
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, "validation failed: content: must not be empty", err.Error())
}

package recognizing

import (
	"errors"
	"fmt"

	"github.com/contre95/djsetlist/src/music"
	"github.com/gofiber/fiber/v2"
)

const (
	msgNoAudio          = "No audio file provided"
	msgRecognizeFailure = "Failed to recognize audio"
)

// Envelope is the JSON body returned by /recognize.
type Envelope struct {
	Success bool              `json:"success"`
	Track   *music.TrackMatch `json:"track,omitempty"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Debug   *string           `json:"debug,omitempty"`
}

// errUnknownOutcome is reported when an outcome carries no known kind.
var errUnknownOutcome = errors.New("recognition returned an unknown outcome")

// EnvelopeFor maps an outcome onto the response body and status. Every known
// outcome is answered with 200; an outcome of unknown kind is a fault.
func EnvelopeFor(outcome music.Outcome) (Envelope, int) {
	switch outcome.Kind {
	case music.OutcomeMatched:
		track := outcome.Track
		return Envelope{Success: true, Track: &track}, fiber.StatusOK
	case music.OutcomeNoMatch:
		return Envelope{Success: false, Message: outcome.Reason}, fiber.StatusOK
	case music.OutcomeUpstreamError:
		detail := outcome.Detail
		return Envelope{
			Success: false,
			Message: upstreamMessage(outcome),
			Debug:   &detail,
		}, fiber.StatusOK
	default:
		return faultEnvelope(fmt.Errorf("%w: kind %d", errUnknownOutcome, outcome.Kind)), fiber.StatusInternalServerError
	}
}

func upstreamMessage(outcome music.Outcome) string {
	return fmt.Sprintf("%s error: %d", outcome.Provider, outcome.StatusCode)
}

func faultEnvelope(err error) Envelope {
	return Envelope{Success: false, Error: err.Error(), Message: msgRecognizeFailure}
}

package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
)

var errEmptyBody = errors.New("request body is required")

// bindStrictJSON decodes the request body into obj, rejecting unknown fields,
// then runs gin's struct validator over the binding tags.
func bindStrictJSON(c *gin.Context, obj any) error {
	if c.Request == nil || c.Request.Body == nil {
		return errEmptyBody
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(obj)
}

// ClassifyRequest represents a single classification request.
// An empty description is valid and yields an empty result list.
type ClassifyRequest struct {
	Description  string `binding:"max=2000" json:"description"`
	FunctionHint string `binding:"max=200"  json:"function_hint,omitempty"`
	TypeHint     string `binding:"max=200"  json:"type_hint,omitempty"`
}

func (r ClassifyRequest) toInput() domain.ClassificationInput {
	return domain.ClassificationInput{
		Description:  r.Description,
		FunctionHint: r.FunctionHint,
		TypeHint:     r.TypeHint,
	}
}

// BatchClassifyRequest represents a batch classification request.
type BatchClassifyRequest struct {
	Items []ClassifyRequest `binding:"required,min=1,dive" json:"items"`
}

// BatchItemResult is the outcome for one batch item, in request order.
type BatchItemResult struct {
	Index    int                            `json:"index"`
	Response *domain.ClassificationResponse `json:"response,omitempty"`
	Error    string                         `json:"error,omitempty"`
}

// BatchClassifyResponse represents a batch classification response.
type BatchClassifyResponse struct {
	Results []BatchItemResult `json:"results"`
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
}

// InferFunctionRequest asks for the function category of a description.
type InferFunctionRequest struct {
	Description string `binding:"max=2000" json:"description"`
}

// InferFunctionResponse carries null fields when no category is inferred.
type InferFunctionResponse struct {
	FunctionCategory *string `json:"function_category"`
	Label            *string `json:"label"`
}

// FunctionsResponse lists the closed function category set in priority order.
type FunctionsResponse struct {
	Functions []domain.FunctionCategory `json:"functions"`
	Total     int                       `json:"total"`
}

// LexiconEntrySummary is the public view of a lexicon entry.
type LexiconEntrySummary struct {
	HSCode    string   `json:"hs_code"`
	Label     string   `json:"label"`
	Functions []string `json:"functions,omitempty"`
	DutyHint  string   `json:"duty_hint,omitempty"`
}

// LexiconResponse describes the loaded lexicon.
type LexiconResponse struct {
	Version            string                `json:"version"`
	Checksum           string                `json:"checksum"`
	Source             string                `json:"source"`
	FunctionCategories int                   `json:"function_categories"`
	Entries            []LexiconEntrySummary `json:"entries"`
	Total              int                   `json:"total"`
}

// CreateSelectionRequest records the HS code chosen for a machinery item.
// LexiconVersion defaults to the loaded lexicon when omitted.
type CreateSelectionRequest struct {
	PraticaID      string   `binding:"required,max=128"       json:"pratica_id"`
	MachineryID    *string  `binding:"omitempty,max=128"      json:"machinery_id"`
	HSCode         string   `binding:"required,max=16"        json:"hs_code"`
	Description    string   `binding:"max=2000"               json:"description"`
	Confidence     *float64 `binding:"omitempty,gte=0,lte=1"  json:"confidence"`
	DutyRate       float64  `binding:"gte=0,lte=100"          json:"duty_rate"`
	VATRate        float64  `binding:"gte=0,lte=100"          json:"vat_rate"`
	LexiconVersion string   `binding:"max=64"                 json:"lexicon_version"`
}

// SelectionResponse is the stored selection.
type SelectionResponse struct {
	ID             string    `json:"id"`
	PraticaID      string    `json:"pratica_id"`
	MachineryID    *string   `json:"machinery_id,omitempty"`
	HSCode         string    `json:"hs_code"`
	Description    string    `json:"description"`
	Confidence     *float64  `json:"confidence,omitempty"`
	DutyRate       float64   `json:"duty_rate"`
	VATRate        float64   `json:"vat_rate"`
	LexiconVersion string    `json:"lexicon_version"`
	SelectedBy     string    `json:"selected_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SelectionsListResponse lists the selections of one pratica, newest first.
type SelectionsListResponse struct {
	Selections []SelectionResponse `json:"selections"`
	Total      int                 `json:"total"`
}

func toSelectionResponse(s *domain.Selection) SelectionResponse {
	return SelectionResponse{
		ID:             s.ID,
		PraticaID:      s.PraticaID,
		MachineryID:    s.MachineryID,
		HSCode:         s.HSCode,
		Description:    s.Description,
		Confidence:     s.Confidence,
		DutyRate:       s.DutyRate,
		VATRate:        s.VATRate,
		LexiconVersion: s.LexiconVersion,
		SelectedBy:     s.SelectedBy,
		CreatedAt:      s.CreatedAt,
	}
}

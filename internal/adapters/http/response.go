package http

import (
	"time"

	"judokit/internal/core/domain"
)

type recordResponse struct {
	ReceiptID         string `json:"receiptId"`
	OriginalReceiptID string `json:"originalReceiptId,omitempty"`
	Type              string `json:"type,omitempty"`
	Result            string `json:"result,omitempty"`
	Message           string `json:"message,omitempty"`
	JudoID            string `json:"judoId,omitempty"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
	ConsumerReference string `json:"yourConsumerReference,omitempty"`
	PaymentReference  string `json:"yourPaymentReference,omitempty"`
	ConsumerToken     string `json:"consumerToken,omitempty"`
	LastFour          string `json:"lastFour,omitempty"`
	EndDate           string `json:"endDate,omitempty"`
	CardNetwork       string `json:"cardNetwork,omitempty"`
	CardToken         string `json:"cardToken,omitempty"`
}

type challengeResponse struct {
	ReceiptID string `json:"receiptId"`
	AcsURL    string `json:"acsUrl"`
	PaReq     string `json:"paReq"`
	MD        string `json:"md"`
}

type paginationResponse struct {
	PageSize int    `json:"pageSize"`
	Offset   int    `json:"offset"`
	Sort     string `json:"sort"`
}

type outcomeResponse struct {
	Records    []recordResponse    `json:"records,omitempty"`
	Pagination *paginationResponse `json:"pagination,omitempty"`
	Challenge  *challengeResponse  `json:"threeDSecure,omitempty"`
}

func newOutcomeResponse(o domain.Outcome) outcomeResponse {
	var resp outcomeResponse
	for _, r := range o.Records {
		resp.Records = append(resp.Records, newRecordResponse(r))
	}
	if p := o.Pagination; p != nil {
		resp.Pagination = &paginationResponse{PageSize: p.PageSize, Offset: p.Offset, Sort: string(p.Sort)}
	}
	if c := o.Challenge; c != nil {
		resp.Challenge = &challengeResponse{ReceiptID: c.ReceiptID, AcsURL: c.AcsURL, PaReq: c.PaReq, MD: c.MD}
	}
	return resp
}

func newRecordResponse(r domain.TransactionRecord) recordResponse {
	out := recordResponse{
		ReceiptID:         r.ReceiptID,
		OriginalReceiptID: r.OriginalReceiptID,
		Type:              r.Type,
		Result:            r.Result,
		Message:           r.Message,
		JudoID:            r.JudoID,
		Amount:            r.Amount.StringFixed(2),
		Currency:          r.Currency,
		ConsumerReference: r.ConsumerReference,
		PaymentReference:  r.PaymentReference,
		ConsumerToken:     r.ConsumerToken,
	}
	if !r.CreatedAt.IsZero() {
		out.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	if cd := r.CardDetails; cd != nil {
		out.LastFour = cd.LastFour
		out.EndDate = cd.EndDate
		out.CardNetwork = string(cd.Network)
		out.CardToken = cd.CardToken
	}
	return out
}

type fieldErrorResponse struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type validationResponse struct {
	Error  string               `json:"error"`
	Fields []fieldErrorResponse `json:"fields"`
}

func newValidationResponse(e *domain.ValidationError) validationResponse {
	resp := validationResponse{Error: "validation failed"}
	for _, f := range e.Fields {
		resp.Fields = append(resp.Fields, fieldErrorResponse{Field: f.Field, Reason: f.Reason})
	}
	return resp
}

type apiErrorResponse struct {
	Error    string `json:"error"`
	Code     int    `json:"code"`
	Category string `json:"category"`
}

func newAPIErrorResponse(e *domain.APIError) apiErrorResponse {
	return apiErrorResponse{Error: e.Message, Code: int(e.Code), Category: string(e.Category)}
}

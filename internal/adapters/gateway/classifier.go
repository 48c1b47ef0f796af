package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"judokit/internal/core/domain"
	"judokit/internal/core/validation"
)

// Gateway response field names.
const (
	keyCode       = "code"
	keyMessage    = "message"
	keyAcsURL     = "acsUrl"
	keyPaReq      = "paReq"
	keyMD         = "md"
	keyResults    = "results"
	keyOffset     = "offset"
	keyPageSize   = "pageSize"
	keySort       = "sort"
	keyReceiptID  = "receiptId"
	keyCreatedAt  = "createdAt"
	keyAmount     = "amount"
	keyCardDetail = "cardDetails"
	keyConsumer   = "consumer"
)

// cardTypes maps the gateway's numeric cardType onto a network.
var cardTypes = map[int]validation.CardNetwork{
	1:  validation.NetworkVisa,
	2:  validation.NetworkMasterCard,
	3:  validation.NetworkVisa,
	8:  validation.NetworkAMEX,
	10: validation.NetworkMaestro,
	11: validation.NetworkVisa,
	12: validation.NetworkMasterCard,
	13: validation.NetworkVisa,
}

// Classifier decodes gateway responses. The time layouts it tries are owned
// by the Classifier and never change after construction.
type Classifier struct {
	timeLayouts []string
}

// NewClassifier returns a Classifier that understands the gateway's
// timestamp formats.
func NewClassifier() *Classifier {
	return &Classifier{timeLayouts: []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999Z0700",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05",
	}}
}

// Classify turns a raw response into an outcome or one of the domain error
// types. transportErr is the error, if any, that interrupted reading body.
func (c *Classifier) Classify(status int, body []byte, transportErr error) (domain.Outcome, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		switch {
		case transportErr != nil:
			return domain.Outcome{}, &domain.NetworkError{Err: transportErr}
		case status >= http.StatusBadRequest:
			return domain.Outcome{}, &domain.APIError{
				Code:       domain.CodeGeneralError,
				Category:   domain.CodeGeneralError.Category(),
				Message:    http.StatusText(status),
				StatusCode: status,
			}
		default:
			return domain.Outcome{}, &domain.SerializationError{Err: errors.New("empty response body")}
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return domain.Outcome{}, &domain.SerializationError{Err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.Outcome{}, &domain.SerializationError{Err: errors.New("trailing data after JSON value")}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return domain.Outcome{}, &domain.SerializationError{Err: fmt.Errorf("response is a JSON %T, not an object", doc)}
	}

	if raw, ok := obj[keyCode]; ok {
		return domain.Outcome{}, c.apiError(status, raw, obj)
	}

	if acs, pareq := stringField(obj, keyAcsURL), stringField(obj, keyPaReq); acs != "" && pareq != "" {
		return domain.Outcome{Challenge: &domain.ThreeDSecureChallenge{
			ReceiptID: stringField(obj, keyReceiptID),
			AcsURL:    acs,
			PaReq:     pareq,
			MD:        stringField(obj, keyMD),
			Raw:       obj,
		}}, nil
	}

	if status >= http.StatusBadRequest {
		msg := stringField(obj, keyMessage)
		if msg == "" {
			msg = http.StatusText(status)
		}
		return domain.Outcome{}, &domain.APIError{
			Code:       domain.CodeGeneralError,
			Category:   domain.CodeGeneralError.Category(),
			Message:    msg,
			StatusCode: status,
			Raw:        obj,
		}
	}

	if rawResults, ok := obj[keyResults]; ok {
		return c.results(obj, rawResults)
	}

	rec, err := c.record(obj)
	if err != nil {
		return domain.Outcome{}, &domain.ResponseParseError{Index: 0, Err: err}
	}
	return domain.Outcome{Records: []domain.TransactionRecord{rec}}, nil
}

func (c *Classifier) apiError(status int, raw any, obj map[string]any) *domain.APIError {
	e := &domain.APIError{
		Code:       domain.CodeUnreadable,
		Category:   domain.CategoryUnknown,
		Message:    stringField(obj, keyMessage),
		StatusCode: status,
		Raw:        obj,
	}
	if n, err := intValue(raw); err == nil {
		e.Code = domain.APIErrorCode(n)
		e.Category = e.Code.Category()
	}
	return e
}

func (c *Classifier) results(obj map[string]any, raw any) (domain.Outcome, error) {
	items, ok := raw.([]any)
	if !ok {
		return domain.Outcome{}, &domain.ResponseParseError{Err: fmt.Errorf("results is a JSON %T, not an array", raw)}
	}

	records := make([]domain.TransactionRecord, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return domain.Outcome{}, &domain.ResponseParseError{Index: i, Err: fmt.Errorf("record is a JSON %T, not an object", item)}
		}
		rec, err := c.record(m)
		if err != nil {
			return domain.Outcome{}, &domain.ResponseParseError{Index: i, Err: err}
		}
		records = append(records, rec)
	}

	out := domain.Outcome{Records: records}
	page, err := pagination(obj)
	if err != nil {
		return domain.Outcome{}, &domain.ResponseParseError{Index: -1, Err: err}
	}
	out.Pagination = page
	return out, nil
}

func pagination(obj map[string]any) (*domain.Pagination, error) {
	_, hasOffset := obj[keyOffset]
	_, hasSize := obj[keyPageSize]
	_, hasSort := obj[keySort]
	if !hasOffset && !hasSize && !hasSort {
		return nil, nil
	}

	p := domain.DefaultPagination()
	if hasOffset {
		n, err := intValue(obj[keyOffset])
		if err != nil {
			return nil, fmt.Errorf("offset: %w", err)
		}
		p.Offset = n
	}
	if hasSize {
		n, err := intValue(obj[keyPageSize])
		if err != nil {
			return nil, fmt.Errorf("pageSize: %w", err)
		}
		p.PageSize = n
	}
	if s := stringField(obj, keySort); s != "" {
		p.Sort = domain.Sort(s)
	}
	return &p, nil
}

func (c *Classifier) record(m map[string]any) (domain.TransactionRecord, error) {
	rec := domain.TransactionRecord{
		ReceiptID:         stringField(m, keyReceiptID),
		OriginalReceiptID: stringField(m, "originalReceiptId"),
		Type:              stringField(m, "type"),
		Result:            stringField(m, "result"),
		Message:           stringField(m, keyMessage),
		JudoID:            stringField(m, "judoId"),
		Currency:          stringField(m, "currency"),
		ConsumerReference: stringField(m, "yourConsumerReference"),
		PaymentReference:  stringField(m, "yourPaymentReference"),
		Raw:               m,
	}
	if rec.ReceiptID == "" {
		return rec, errors.New("missing receiptId")
	}

	if raw, ok := m[keyAmount]; ok && raw != nil {
		d, err := decimalValue(raw)
		if err != nil {
			return rec, fmt.Errorf("amount: %w", err)
		}
		rec.Amount = d
	}

	if s := stringField(m, keyCreatedAt); s != "" {
		t, err := c.parseTime(s)
		if err != nil {
			return rec, fmt.Errorf("createdAt: %w", err)
		}
		rec.CreatedAt = t
	}

	if raw, ok := m[keyCardDetail]; ok && raw != nil {
		cd, ok := raw.(map[string]any)
		if !ok {
			return rec, fmt.Errorf("cardDetails is a JSON %T, not an object", raw)
		}
		rec.CardDetails = cardDetails(cd)
	}

	if raw, ok := m[keyConsumer]; ok && raw != nil {
		consumer, ok := raw.(map[string]any)
		if !ok {
			return rec, fmt.Errorf("consumer is a JSON %T, not an object", raw)
		}
		rec.ConsumerToken = stringField(consumer, "consumerToken")
		if rec.ConsumerReference == "" {
			rec.ConsumerReference = stringField(consumer, "yourConsumerReference")
		}
	}
	if rec.ConsumerToken == "" {
		rec.ConsumerToken = stringField(m, "consumerToken")
	}
	return rec, nil
}

func cardDetails(m map[string]any) *domain.CardDetails {
	cd := &domain.CardDetails{
		LastFour:  stringField(m, "cardLastfour"),
		EndDate:   stringField(m, "endDate"),
		CardToken: stringField(m, "cardToken"),
		Network:   validation.NetworkUnknown,
	}
	if n, err := intValue(m["cardType"]); err == nil {
		if network, ok := cardTypes[n]; ok {
			cd.Network = network
		}
	}
	return cd
}

func (c *Classifier) parseTime(s string) (time.Time, error) {
	for _, layout := range c.timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// stringField reads a string or number field as a string.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func intValue(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case string:
		return strconv.Atoi(n)
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("unexpected %T", v)
}

func decimalValue(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	}
	return decimal.Decimal{}, fmt.Errorf("unexpected %T", v)
}

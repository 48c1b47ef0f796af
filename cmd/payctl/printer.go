package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"judokit/internal/core/domain"
)

var (
	okColor        = color.New(color.FgGreen, color.Bold)
	declinedColor  = color.New(color.FgRed, color.Bold)
	challengeColor = color.New(color.FgYellow, color.Bold)
	dimColor       = color.New(color.FgHiBlack)
)

func printOutcome(w io.Writer, o domain.Outcome) {
	if c := o.Challenge; c != nil {
		challengeColor.Fprintf(w, "3-D Secure required for receipt %s\n", c.ReceiptID)
		fmt.Fprintf(w, "  acsUrl: %s\n  md:     %s\n", c.AcsURL, c.MD)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECEIPT\tTYPE\tRESULT\tAMOUNT\tREFERENCE\tCREATED")
	for _, r := range o.Records {
		result := declinedColor.Sprint(r.Result)
		if r.Successful() {
			result = okColor.Sprint(r.Result)
		}
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
			r.ReceiptID, r.Type, result, r.Amount.StringFixed(2), r.Currency, r.PaymentReference, created)
	}
	tw.Flush()

	if p := o.Pagination; p != nil {
		dimColor.Fprintf(w, "offset %d, page size %d, %s\n", p.Offset, p.PageSize, p.Sort)
	}
}

func printOK(w io.Writer, msg string) {
	okColor.Fprintln(w, "OK", msg)
}

func printError(w io.Writer, err error) {
	var (
		ve     *domain.ValidationError
		apiErr *domain.APIError
	)
	switch {
	case errors.As(err, &ve):
		declinedColor.Fprintln(w, "validation failed")
		for _, f := range ve.Fields {
			fmt.Fprintf(w, "  %s: %s\n", f.Field, f.Reason)
		}
	case errors.As(err, &apiErr):
		declinedColor.Fprintf(w, "gateway error %d (%s)\n", apiErr.Code, apiErr.Category)
		fmt.Fprintf(w, "  %s\n", apiErr.Message)
	default:
		declinedColor.Fprintln(w, err.Error())
	}
}

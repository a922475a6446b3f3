// Package ses sends review alert emails through AWS SES.
package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"dmeflow/internal/domain"
	"dmeflow/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	reviewList  string
	consoleURL  string
}

// NewSESSender creates a new SES-backed EmailSender. reviewList is the
// address the review queue alerts go to; consoleURL is the base URL of the
// review console linked from each alert.
func NewSESSender(region, fromAddress, fromName, reviewList, consoleURL string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return &sesSender{
		client:      sesv2.NewFromConfig(cfg),
		fromAddress: fromAddress,
		fromName:    fromName,
		reviewList:  reviewList,
		consoleURL:  consoleURL,
	}, nil
}

func (s *sesSender) SendReviewAlert(ctx context.Context, order *domain.Order, reason string) error {
	reviewURL := fmt.Sprintf("%s/orders/%s/review", s.consoleURL, order.ID)

	subject := fmt.Sprintf("Order %s needs review: %s", order.ID, order.Device)
	htmlBody := buildReviewAlertHTML(order, reason, reviewURL)
	textBody := fmt.Sprintf(
		"Order %s (%s for %s) was flagged for human review.\n\nReason: %s\n\nReview it here:\n%s\n",
		order.ID, order.Device, order.PatientName, reason, reviewURL)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{s.reviewList},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildReviewAlertHTML(order *domain.Order, reason, reviewURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Order needs review</h2>
  <p>An extracted device order was flagged for human review.</p>
  <table style="border-collapse: collapse; margin: 20px 0;">
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Order</td><td>%s</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Device</td><td>%s</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Patient</td><td>%s</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Provider</td><td>%s</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Reason</td><td>%s</td></tr>
  </table>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Open Review</a>
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">DMEFlow - Physician Note Processing</p>
</body>
</html>`, order.ID, order.Device, order.PatientName, order.OrderingProvider, reason, reviewURL)
}

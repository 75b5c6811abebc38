package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESPublisher emails a plain-text digest of each event via Amazon SES.
// Failures are logged and swallowed: notification delivery must never fail a
// dispatch operation.
type SESPublisher struct {
	client    *sesv2.Client
	sender    string
	recipient string
}

func NewSESPublisher(ctx context.Context, sender, recipient string) (*SESPublisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("notify: load aws config: %w", err)
	}
	return &SESPublisher{
		client:    sesv2.NewFromConfig(cfg),
		sender:    sender,
		recipient: recipient,
	}, nil
}

func (p *SESPublisher) Publish(ctx context.Context, event Event) {
	subject := fmt.Sprintf("[dispatch] %s %s", event.Kind, event.RouteCode)
	body := fmt.Sprintf(
		"Event:    %s\nRoute:    %s (%s)\nOrder:    %s\nVehicle:  %s\nAt:       %s\n\n%s\n",
		event.Kind, event.RouteCode, event.RouteID, event.OrderID, event.VehicleID,
		event.OccurredAt.Format("2006-01-02 15:04:05 MST"), event.Detail,
	)

	_, err := p.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(p.sender),
		Destination: &types.Destination{
			ToAddresses: []string{p.recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		log.Printf("notify: ses send failed for %s: %v", event.Kind, err)
	}
}

// Package sns delivers notifications as SMS through AWS SNS. Recipient ids
// are E.164 phone numbers.
package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/smithy-go"

	"github.com/parcel-notify/internal/config"
	"github.com/parcel-notify/internal/domain"
	"github.com/parcel-notify/internal/infrastructure/awsconf"
)

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Sender struct {
	client publisher
}

func NewSender(ctx context.Context, cfg *config.Config) (*Sender, error) {
	awsCfg, err := awsconf.Load(ctx, cfg, cfg.SNSRegion)
	if err != nil {
		return nil, err
	}
	opts := []func(*sns.Options){}
	if cfg.AWSEndpointURL != "" {
		opts = append(opts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return &Sender{client: sns.NewFromConfig(awsCfg, opts...)}, nil
}

// Push sends text as a transactional SMS to the phone number in to.
func (s *Sender) Push(ctx context.Context, to, text string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(text),
	})
	if err != nil {
		return apiError(err)
	}
	return nil
}

// apiError turns an AWS API failure into a GatewayError carrying the
// service's error code and message.
func apiError(err error) error {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return fmt.Errorf("sns publish: %w", err)
	}
	status := 0
	var withStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &withStatus) {
		status = withStatus.HTTPStatusCode()
	}
	payload, _ := json.Marshal(map[string]string{
		"code":    ae.ErrorCode(),
		"message": ae.ErrorMessage(),
	})
	return &domain.GatewayError{StatusCode: status, Payload: payload, Err: err}
}

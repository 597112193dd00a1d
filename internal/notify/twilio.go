package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/ordervoice/voice-bridge/internal/config"
	"github.com/ordervoice/voice-bridge/internal/extraction"
	"github.com/ordervoice/voice-bridge/internal/observability"
)

// SMSNotifier sends the post-order text messages through a Twilio
// messaging service: a confirmation to the caller and a preparation
// notice to the restaurant operator.
type SMSNotifier struct {
	client              *twilio.RestClient
	messagingServiceSID string
	operatorNumber      string
	logger              zerolog.Logger
}

// NewSMSNotifier creates a notifier from service configuration.
func NewSMSNotifier(cfg *config.Config) *SMSNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})

	return &SMSNotifier{
		client:              client,
		messagingServiceSID: cfg.MessagingServiceSID,
		operatorNumber:      cfg.OperatorNumber,
		logger:              observability.GetLogger().With().Str("component", "notify").Logger(),
	}
}

// NotifyCustomer sends the order confirmation to the caller.
func (n *SMSNotifier) NotifyCustomer(ctx context.Context, to string, order *extraction.Order) error {
	if err := n.send(to, CustomerMessage(order)); err != nil {
		return fmt.Errorf("customer sms: %w", err)
	}
	n.logger.Info().Str("to", to).Msg("Customer confirmation sent")
	return nil
}

// NotifyOperator sends the preparation notice to the operator number.
func (n *SMSNotifier) NotifyOperator(ctx context.Context, caller string, order *extraction.Order) error {
	if n.operatorNumber == "" {
		n.logger.Warn().Msg("Operator number not configured, skipping operator notice")
		return nil
	}
	if err := n.send(n.operatorNumber, OperatorMessage(caller, order)); err != nil {
		return fmt.Errorf("operator sms: %w", err)
	}
	n.logger.Info().Str("to", n.operatorNumber).Msg("Operator notice sent")
	return nil
}

func (n *SMSNotifier) send(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(body)
	params.SetTo(to)
	params.SetMessagingServiceSid(n.messagingServiceSID)

	_, err := n.client.Api.CreateMessage(params)
	return err
}

// CustomerMessage renders the confirmation text sent to the caller.
func CustomerMessage(order *extraction.Order) string {
	return fmt.Sprintf(
		"Dear %s,\nWe are pleased to inform you that your order of %s has been successfully processed.\n"+
			"The total price of your order is %s and your food will be prepared at %s as requested.\n"+
			"We hope you enjoy your meal and have a wonderful experience. Should you have any questions or\n"+
			"need further assistance, please don't hesitate to reach out.\n"+
			"Thank you for choosing us. We look forward to serving you again in the future.\nWarm Regards.",
		order.Name, itemList(order), order.Total, order.Time)
}

// OperatorMessage renders the preparation notice sent to the operator.
func OperatorMessage(caller string, order *extraction.Order) string {
	return fmt.Sprintf(
		"%s(Contact Number: %s) ordered %s. The total price of this order is %s and this must be prepared until %s.",
		order.Name, caller, itemList(order), order.Total, order.Time)
}

func itemList(order *extraction.Order) string {
	return strings.Join(order.Items, ", ")
}

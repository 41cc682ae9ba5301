// Package notifier delivers price-drop alerts over SMTP.
package notifier

import (
	"context"
	"fmt"

	"github.com/colelamarris56-code/price-monitor/internal/config"
	"github.com/colelamarris56-code/price-monitor/internal/models"

	"gopkg.in/gomail.v2"
)

type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

func New(cfg config.SMTP) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
		to:     cfg.To,
	}
}

// SendPriceAlert mails a price alert. A nil previousPrice means this is the
// first recorded reading, so the mail has no drop line. The caller treats
// delivery as best effort; a failure here never rolls back the recorded
// observation.
func (n *SMTPNotifier) SendPriceAlert(ctx context.Context, product models.Product, previousPrice *float64, newPrice float64) error {
	const op = "notifier.SendPriceAlert"

	var body string
	if previousPrice == nil {
		body = fmt.Sprintf(`
		<h2>Price Alert!</h2>
		<p><strong>%s</strong> is within your target price.</p>
		<ul>
			<li>Current price: $%.2f</li>
			<li>URL: <a href="%s">%s</a></li>
		</ul>
		<p>This is at or below your target price of $%.2f.</p>`,
			product.Title,
			newPrice,
			product.URL,
			product.URL,
			product.TargetPrice,
		)
	} else {
		drop := *previousPrice - newPrice
		percent := 0.0
		if *previousPrice > 0 {
			percent = drop / *previousPrice * 100
		}
		body = fmt.Sprintf(`
		<h2>Price Drop Alert!</h2>
		<p><strong>%s</strong> is now cheaper!</p>
		<ul>
			<li>Old price: $%.2f</li>
			<li>New price: $%.2f</li>
			<li>Price drop: $%.2f (%.2f%%)</li>
			<li>URL: <a href="%s">%s</a></li>
		</ul>
		<p>This is at or below your target price of $%.2f.</p>`,
			product.Title,
			*previousPrice,
			newPrice,
			drop,
			percent,
			product.URL,
			product.URL,
			product.TargetPrice,
		)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", fmt.Sprintf("Price Drop Alert: %s", product.Title))
	m.SetBody("text/html", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

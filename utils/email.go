package utils

import (
	"fmt"
	"io"
	"log"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
	"gopkg.in/gomail.v2"

	"reservaya/config"
)

// ReservationConfirmationData carries the fields rendered into the
// confirmation email body.
type ReservationConfirmationData struct {
	EstablishmentName string
	Date              string
	StartTime         string
	PartySize         int
	TableLabel        string
	ConfirmationToken string
}

// SendReservationConfirmation sends the confirmation email with the
// check-in QR attached. Runs async so it never delays the booking response.
func SendReservationConfirmation(to string, data ReservationConfirmationData) {
	go func() {
		body := fmt.Sprintf(
			"Your reservation at %s is confirmed pending arrival.\n\n"+
				"Date: %s\nTime: %s\nParty size: %d\nTable: %s\n\n"+
				"Show the attached QR code at the entrance, or give the code %s.",
			data.EstablishmentName, data.Date, data.StartTime, data.PartySize,
			data.TableLabel, data.ConfirmationToken,
		)

		m := gomail.NewMessage()
		m.SetHeader("From", config.Config("SMTP_FROM"))
		m.SetHeader("To", to)
		m.SetHeader("Subject", "Reservation at "+data.EstablishmentName+" - "+data.Date+" "+data.StartTime)
		m.SetBody("text/plain", body)

		qrContent := fmt.Sprintf("%s/checkin/%s", config.ConfigOr("PUBLIC_BASE_URL", "http://localhost:3000"), data.ConfirmationToken)
		qrBytes, err := GenerateQRCode(qrContent, 256)
		if err != nil {
			log.Printf("qr generation for %s failed: %v", data.ConfirmationToken, err)
		} else {
			filename := "reservation_qr.png"
			m.Attach(filename, gomail.Rename(filename), gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(qrBytes)
				return err
			}))
		}

		port, _ := strconv.Atoi(config.ConfigOr("SMTP_PORT", "587"))
		d := gomail.NewDialer(config.Config("SMTP_HOST"), port, config.Config("SMTP_USERNAME"), config.Config("SMTP_PASSWORD"))
		if err := d.DialAndSend(m); err != nil {
			log.Printf("confirmation email to %s failed: %v", to, err)
		}
	}()
}

// SendCancellationNotice sends a plain-text notice when a reservation is
// cancelled or expires.
func SendCancellationNotice(to, establishmentName, date, startTime, reason string) {
	go func() {
		e := email.NewEmail()
		e.From = config.Config("SMTP_FROM")
		e.To = []string{to}
		e.Subject = "Reservation cancelled - " + establishmentName
		e.Text = []byte(fmt.Sprintf(
			"Your reservation at %s on %s at %s is no longer held: %s. The table has been released.",
			establishmentName, date, startTime, reason,
		))

		host := config.Config("SMTP_HOST")
		addr := host + ":" + config.ConfigOr("SMTP_PORT", "587")
		auth := smtp.PlainAuth("", config.Config("SMTP_USERNAME"), config.Config("SMTP_PASSWORD"), host)
		if err := e.Send(addr, auth); err != nil {
			log.Printf("cancellation notice to %s failed: %v", to, err)
		}
	}()
}

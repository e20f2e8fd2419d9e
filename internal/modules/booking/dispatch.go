package booking

import (
	"context"
	"fmt"
	"log"

	"homeserve/internal/modules/notify"
	"homeserve/internal/types"
)

// dispatch runs after a successful write. Failures are logged and never undo
// the committed state.
func (s *Service) dispatch(ctx context.Context, b *Booking) {
	for _, e := range b.PullEvents() {
		s.publish(ctx, e)
		switch ev := e.(type) {
		case StatusChanged:
			s.syncAvailability(ctx, ev)
			s.notifyProgress(ctx, b, ev)
		case Requested:
			s.notify(ctx, notify.Notification{
				RecipientType: notify.RecipientAdmin,
				Type:          notify.TypeBookingRequested,
				Title:         "New booking",
				Body:          fmt.Sprintf("%s at %s (%d candidates)", ev.ServiceName, ev.Address, ev.Candidates),
				Metadata:      bookingMeta(ev.BookingID),
			})
		case OfferQueued:
			s.sendOffer(ctx, b, ev)
		case AssignmentFailed:
			s.notify(ctx, notify.Notification{
				RecipientID:   ev.CustomerID,
				RecipientType: notify.RecipientCustomer,
				Type:          notify.TypeNoTechnicians,
				Title:         "No technicians available",
				Body:          "We could not find a technician for your booking. Please try again later.",
				Metadata:      bookingMeta(ev.BookingID),
			})
			s.notify(ctx, notify.Notification{
				RecipientType: notify.RecipientAdmin,
				Type:          notify.TypeAssignmentFailed,
				Title:         "Assignment failed",
				Body:          fmt.Sprintf("Booking %s ran out of candidates", ev.BookingID),
				Metadata:      bookingMeta(ev.BookingID),
			})
		case Accepted:
			s.notifyAccepted(ctx, b, ev)
		case TechnicianWithdrew:
			s.notify(ctx, notify.Notification{
				RecipientID:   ev.CustomerID,
				RecipientType: notify.RecipientCustomer,
				Type:          notify.TypeTechnicianLeft,
				Title:         "Technician cancelled",
				Body:          "Your technician had to cancel. We are finding you another one.",
				Metadata:      bookingMeta(ev.BookingID),
			})
		case ExtraChargeAdded:
			meta := bookingMeta(ev.BookingID)
			meta["charge_id"] = ev.Charge.ID
			meta["amount"] = fmt.Sprint(ev.Charge.Amount)
			s.notify(ctx, notify.Notification{
				RecipientID:   ev.CustomerID,
				RecipientType: notify.RecipientCustomer,
				Type:          notify.TypeExtraCharge,
				Title:         "Extra charge needs approval",
				Body:          fmt.Sprintf("%s: %d", ev.Charge.Title, ev.Charge.Amount),
				Metadata:      meta,
				ClickAction:   "APPROVE_EXTRA_CHARGE",
			})
		case ExtraChargeResolved:
			meta := bookingMeta(ev.BookingID)
			meta["charge_id"] = ev.ChargeID
			meta["status"] = string(ev.Status)
			s.notify(ctx, notify.Notification{
				RecipientID:   ev.TechnicianID,
				RecipientType: notify.RecipientTechnician,
				Type:          notify.TypeExtraChargeResult,
				Title:         "Extra charge " + string(ev.Status),
				Body:          "The customer responded to your extra charge.",
				Metadata:      meta,
			})
		case Completed:
			meta := bookingMeta(ev.BookingID)
			meta["amount"] = fmt.Sprint(ev.FinalAmount)
			s.notify(ctx, notify.Notification{
				RecipientID:   ev.CustomerID,
				RecipientType: notify.RecipientCustomer,
				Type:          notify.TypeJobCompleted,
				Title:         "Job completed",
				Body:          fmt.Sprintf("Amount due: %d", ev.FinalAmount),
				Metadata:      meta,
			})
		case PaymentSettled:
			if ev.TechnicianID == "" {
				continue
			}
			// Covers a release at completion that failed.
			s.setBusy(ctx, ev.TechnicianID, false)
			s.notify(ctx, notify.Notification{
				RecipientID:   ev.TechnicianID,
				RecipientType: notify.RecipientTechnician,
				Type:          notify.TypePaymentReceived,
				Title:         "Payment received",
				Body:          fmt.Sprintf("Payment of %d received", ev.Amount),
				Metadata:      bookingMeta(ev.BookingID),
			})
		case Cancelled:
			if ev.TechnicianID != nil {
				s.notify(ctx, notify.Notification{
					RecipientID:   *ev.TechnicianID,
					RecipientType: notify.RecipientTechnician,
					Type:          notify.TypeBookingCancelled,
					Title:         "Booking cancelled",
					Body:          ev.Reason,
					Metadata:      bookingMeta(ev.BookingID),
				})
			}
			s.notify(ctx, notify.Notification{
				RecipientType: notify.RecipientAdmin,
				Type:          notify.TypeBookingCancelled,
				Title:         "Booking cancelled",
				Body:          fmt.Sprintf("Booking %s: %s", ev.BookingID, ev.Reason),
				Metadata:      bookingMeta(ev.BookingID),
			})
		}
	}
}

// syncAvailability keeps the directory's busy flag in line with the status:
// a replaced technician is released and the current one follows To.
func (s *Service) syncAvailability(ctx context.Context, ev StatusChanged) {
	prev, cur := ev.PreviousTechnicianID, ev.TechnicianID
	if prev != nil && (cur == nil || *cur != *prev) {
		s.setBusy(ctx, *prev, false)
	}
	if cur == nil {
		return
	}
	sameTech := prev != nil && *prev == *cur
	if !sameTech || ev.From.IsBusy() != ev.To.IsBusy() {
		s.setBusy(ctx, *cur, ev.To.IsBusy())
	}
}

func (s *Service) setBusy(ctx context.Context, techID types.ID, busy bool) {
	if err := s.technicians.UpdateAvailabilityStatus(ctx, techID, busy); err != nil {
		log.Printf("[dispatch] technician %s busy=%t: %v", techID, busy, err)
	}
}

var progressTitles = map[Status]string{
	StatusEnRoute:    "Technician is on the way",
	StatusReached:    "Technician has arrived",
	StatusInProgress: "Work has started",
}

func (s *Service) notifyProgress(ctx context.Context, b *Booking, ev StatusChanged) {
	title, ok := progressTitles[ev.To]
	if !ok || ev.From == StatusExtrasPending {
		return
	}
	meta := bookingMeta(ev.BookingID)
	meta["status"] = string(ev.To)
	s.notify(ctx, notify.Notification{
		RecipientID:   b.CustomerID(),
		RecipientType: notify.RecipientCustomer,
		Type:          notify.TypeStatusUpdate,
		Title:         title,
		Body:          b.ServiceName(),
		Metadata:      meta,
	})
}

func (s *Service) sendOffer(ctx context.Context, b *Booking, ev OfferQueued) {
	p := b.Pricing()
	earnings := types.NewMoney(p.Estimated, p.Currency).Share(s.cfg.TechSharePct)
	offer := notify.Offer{
		BookingID:   ev.BookingID,
		ServiceName: b.ServiceName(),
		Earnings:    earnings.Amount,
		Currency:    earnings.Currency,
		DistanceKm:  ev.DistanceKm,
		Address:     b.r.Location.Address,
		ExpiresAt:   ev.ExpiresAt,
	}
	if err := s.notifier.SendBookingOffer(ctx, ev.TechnicianID, offer); err != nil {
		log.Printf("[dispatch] offer %s to %s: %v", ev.BookingID, ev.TechnicianID, err)
	}
}

func (s *Service) notifyAccepted(ctx context.Context, b *Booking, ev Accepted) {
	r := b.Record()
	body := "A technician has accepted your booking."
	meta := bookingMeta(ev.BookingID)
	meta["technician_id"] = string(ev.TechnicianID)
	meta["otp"] = r.Meta.OTP
	if t := r.Snapshots.Technician; t != nil {
		body = fmt.Sprintf("%s (rating %.1f) is assigned. Share OTP %s when they arrive.", t.Name, t.Rating, r.Meta.OTP)
		meta["technician_name"] = t.Name
		meta["technician_phone"] = t.Phone
	}
	s.notify(ctx, notify.Notification{
		RecipientID:   ev.CustomerID,
		RecipientType: notify.RecipientCustomer,
		Type:          notify.TypeBookingAccepted,
		Title:         "Technician assigned",
		Body:          body,
		Metadata:      meta,
	})
	s.notify(ctx, notify.Notification{
		RecipientID:   ev.TechnicianID,
		RecipientType: notify.RecipientTechnician,
		Type:          notify.TypeJobAssigned,
		Title:         "Job assigned",
		Body:          fmt.Sprintf("%s at %s", b.ServiceName(), r.Location.Address),
		Metadata:      bookingMeta(ev.BookingID),
	})
	s.notify(ctx, notify.Notification{
		RecipientType: notify.RecipientAdmin,
		Type:          notify.TypeBookingAccepted,
		Title:         "Booking accepted",
		Body:          fmt.Sprintf("Booking %s accepted by %s (forced=%t)", ev.BookingID, ev.TechnicianID, ev.AdminForced),
		Metadata:      bookingMeta(ev.BookingID),
	})
}

func (s *Service) notify(ctx context.Context, n notify.Notification) {
	if err := s.notifier.Send(ctx, n); err != nil {
		log.Printf("[dispatch] %s to %s %s: %v", n.Type, n.RecipientType, n.RecipientID, err)
	}
}

func (s *Service) publish(ctx context.Context, e Event) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(ctx, e.EventName(), e); err != nil {
		log.Printf("[dispatch] publish %s: %v", e.EventName(), err)
	}
}

func bookingMeta(id types.ID) map[string]string {
	return map[string]string{"booking_id": string(id)}
}

// Package fulfillment performs the side effects requested by the intent
// engine's fulfillment callbacks: append a log record, optionally send an
// alert SMS. Failures never escape the dispatcher; the webhook caller always
// gets a well-formed reply.
package fulfillment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/juicecola/construct-agent/internal/domain"
	"github.com/juicecola/construct-agent/internal/sms"
	"github.com/juicecola/construct-agent/internal/store"
)

// Action is the closed set of side effects a callback tag can request.
// Decoding tags up front makes a forgotten tag an explicit ActionUnknown arm
// instead of a silent string mismatch.
type Action int

const (
	ActionUnknown Action = iota
	ActionLogHazard
	ActionCheckIn
	ActionCheckOut
	ActionLogDelivery
)

// Tags set on the agent's fulfillment hooks.
const (
	TagLogHazard   = "log_hazard_alert"
	TagCheckIn     = "log_check_in"
	TagCheckOut    = "log_check_out"
	TagLogDelivery = "log_delivery"
)

// ParseTag maps a callback tag to its Action.
func ParseTag(tag string) Action {
	switch tag {
	case TagLogHazard:
		return ActionLogHazard
	case TagCheckIn:
		return ActionCheckIn
	case TagCheckOut:
		return ActionCheckOut
	case TagLogDelivery:
		return ActionLogDelivery
	default:
		return ActionUnknown
	}
}

// Reply is the caller-facing result: messages for the engine to relay. Empty
// on success, a single apology on internal failure.
type Reply struct {
	Messages []string
}

const apologyText = "Sorry, there was an error processing your request."

// Parameter defaults when the engine extracted nothing usable.
const (
	defaultLocation    = "Unknown Location"
	defaultDescription = "No description"
	defaultWorker      = "Unknown Worker"
	defaultOrder       = "Unknown Order"
	defaultSite        = "Unknown Site"
	systemReporter     = "Reported via System"
)

// Dispatcher owns the side-effect wiring: the log stores, the SMS sender, and
// the alert destination.
type Dispatcher struct {
	stores     *store.Stores
	sender     sms.Sender
	alertPhone string
	now        func() time.Time
}

func NewDispatcher(stores *store.Stores, sender sms.Sender, alertPhone string) *Dispatcher {
	return &Dispatcher{
		stores:     stores,
		sender:     sender,
		alertPhone: alertPhone,
		now:        time.Now,
	}
}

// Dispatch runs the action for the tag. Unknown tags are logged no-ops; any
// internal failure degrades to an apology reply and is never propagated.
func (d *Dispatcher) Dispatch(ctx context.Context, tag string, params map[string]any) Reply {
	var err error
	switch ParseTag(tag) {
	case ActionLogHazard:
		err = d.logHazard(ctx, params)
	case ActionCheckIn:
		d.logAttendance(params, domain.ActionCheckIn)
	case ActionCheckOut:
		d.logAttendance(params, domain.ActionCheckOut)
	case ActionLogDelivery:
		err = d.logDelivery(ctx, params)
	case ActionUnknown:
		log.Printf("fulfillment: unhandled tag %q", tag)
	}
	if err != nil {
		log.Printf("fulfillment: %s failed: %v", tag, err)
		return Reply{Messages: []string{apologyText}}
	}
	return Reply{}
}

func (d *Dispatcher) logHazard(ctx context.Context, params map[string]any) error {
	location := stringParam(params, "site_location", defaultLocation)
	description := stringParam(params, "hazard_description", defaultDescription)
	d.stores.Hazards.Append(domain.HazardRecord{
		ID:          uuid.NewString(),
		Timestamp:   d.timestamp(),
		Location:    location,
		Description: description,
		Reporter:    systemReporter,
	})
	alert := fmt.Sprintf("ALERT: Hazard '%s' reported near '%s'.", description, location)
	return d.sender.Send(ctx, []string{d.alertPhone}, alert)
}

func (d *Dispatcher) logAttendance(params map[string]any, action string) {
	d.stores.Attendance.Append(domain.AttendanceRecord{
		ID:        uuid.NewString(),
		Timestamp: d.timestamp(),
		WorkerID:  stringParam(params, "worker_id", defaultWorker),
		Action:    action,
	})
}

func (d *Dispatcher) logDelivery(ctx context.Context, params map[string]any) error {
	orderID := stringParam(params, "order_id", defaultOrder)
	location := stringParam(params, "site_location", defaultSite)
	d.stores.Deliveries.Append(domain.DeliveryRecord{
		ID:        uuid.NewString(),
		Timestamp: d.timestamp(),
		OrderID:   orderID,
		Location:  location,
	})
	notice := fmt.Sprintf("DELIVERY: Order '%s' at '%s' logged.", orderID, location)
	return d.sender.Send(ctx, []string{d.alertPhone}, notice)
}

func (d *Dispatcher) timestamp() string {
	return d.now().UTC().Format(time.RFC3339)
}

// stringParam reads a callback parameter, tolerating the engine's loosely
// typed values. Missing, nil, or empty values fall back to the default.
func stringParam(params map[string]any, key, fallback string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return fallback
		}
		return s
	}
	return fmt.Sprint(v)
}

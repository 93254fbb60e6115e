package get_availability

import (
	"github.com/lasierra/table-reservations/internal/domain"
	getAvailability "github.com/lasierra/table-reservations/internal/usecase/get_availability"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

type SlotResponse struct {
	Time        string `json:"time"`
	TablesInUse int    `json:"tablesInUse"`
	TablesFree  int    `json:"tablesFree"`
	TotalTables int    `json:"totalTables"`
	Temporal    string `json:"temporal"`
	Bookable    bool   `json:"bookable"`
}

func ToUseCaseRequest(date, slot string) *getAvailability.Request {
	return &getAvailability.Request{Date: date, Time: slot}
}

func FromUseCaseResponse(resp *getAvailability.Response) *AvailabilityResponse {
	out := &AvailabilityResponse{
		Date:  resp.Date.Format(domain.DateFormat),
		Slots: make([]SlotResponse, 0, len(resp.Slots)),
	}
	for _, s := range resp.Slots {
		out.Slots = append(out.Slots, SlotResponse{
			Time:        s.Slot.Label(),
			TablesInUse: s.TablesInUse,
			TablesFree:  s.TablesFree,
			TotalTables: s.TotalTables,
			Temporal:    string(s.Temporal),
			Bookable:    s.Bookable,
		})
	}
	return out
}

package service

import "github.com/Leganyst/clinic-booking/internal/model"

// validateSlotForBooking объясняет, почему слот нельзя забронировать.
func validateSlotForBooking(slot *model.Slot) (bool, string) {
	if !slot.EndsAt.After(slot.StartsAt) {
		return false, "invalid slot time range"
	}
	if !slot.Available {
		return false, "slot is not free"
	}
	return true, ""
}

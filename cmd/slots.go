package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
)

func slotsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "slots", Short: "Generate and inspect slots"}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate missing slots for a window, a definition or every active definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			windowRaw, _ := cmd.Flags().GetString("window")
			availabilityRaw, _ := cmd.Flags().GetString("availability")
			all, _ := cmd.Flags().GetBool("all")

			return withApp(cmd, func(ctx context.Context, a *app) error {
				switch {
				case windowRaw != "":
					id, err := uuidFlag(cmd, "window")
					if err != nil {
						return err
					}
					slots, err := a.generator.GenerateSlots(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "window %s has %d slots\n", id, len(slots))
				case availabilityRaw != "":
					id, err := uuidFlag(cmd, "availability")
					if err != nil {
						return err
					}
					created, err := a.generator.GenerateForAvailability(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "created %d slots\n", created)
				case all:
					created, err := a.generator.GenerateActive(ctx, time.Now())
					fmt.Fprintf(cmd.OutOrStdout(), "created %d slots\n", created)
					return err
				default:
					return errors.New("one of --window, --availability or --all is required")
				}
				return nil
			})
		},
	}
	generateCmd.Flags().String("window", "", "window id")
	generateCmd.Flags().String("availability", "", "availability definition id")
	generateCmd.Flags().Bool("all", false, "every definition that has not ended yet")
	generateCmd.MarkFlagsMutuallyExclusive("window", "availability", "all")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a doctor's available slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, _ := cmd.Flags().GetInt("page")
			size, _ := cmd.Flags().GetInt("size")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				doctorID, err := uuidFlag(cmd, "doctor")
				if err != nil {
					return err
				}
				rng, err := rangeFlags(cmd, a.loc)
				if err != nil {
					return err
				}

				res, err := a.bookings.ListAvailableSlotsPage(ctx, doctorID, rng, page, size)
				if err != nil {
					return err
				}
				for _, s := range res.Items {
					printSlot(cmd, a.loc, &s)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "page %d, %d of %d slots\n", res.Page, len(res.Items), res.Total)
				return nil
			})
		},
	}
	listCmd.Flags().String("doctor", "", "doctor id")
	_ = listCmd.MarkFlagRequired("doctor")
	addRangeFlags(listCmd)
	addPageFlags(listCmd)

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Take a free slot out of booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := uuidFlag(cmd, "slot")
				if err != nil {
					return err
				}
				if err := a.bookings.Withdraw(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "slot %s withdrawn\n", id)
				return nil
			})
		},
	}
	withdrawCmd.Flags().String("slot", "", "slot id")
	_ = withdrawCmd.MarkFlagRequired("slot")

	reinstateCmd := &cobra.Command{
		Use:   "reinstate",
		Short: "Return a withdrawn slot to booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := uuidFlag(cmd, "slot")
				if err != nil {
					return err
				}
				if err := a.bookings.Reinstate(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "slot %s reinstated\n", id)
				return nil
			})
		},
	}
	reinstateCmd.Flags().String("slot", "", "slot id")
	_ = reinstateCmd.MarkFlagRequired("slot")

	slotHistoryCmd := &cobra.Command{
		Use:   "history",
		Short: "Show audit events of a slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := uuidFlag(cmd, "slot")
				if err != nil {
					return err
				}
				events, err := a.bookings.SlotHistory(ctx, id)
				if err != nil {
					return err
				}
				printEvents(cmd, a.loc, events)
				return nil
			})
		},
	}
	slotHistoryCmd.Flags().String("slot", "", "slot id")
	_ = slotHistoryCmd.MarkFlagRequired("slot")

	cmd.AddCommand(generateCmd, listCmd, withdrawCmd, reinstateCmd, slotHistoryCmd)
	return cmd
}

func bookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a slot for a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			comment, _ := cmd.Flags().GetString("comment")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				slotID, err := uuidFlag(cmd, "slot")
				if err != nil {
					return err
				}
				patientID, err := patientFlag(ctx, cmd, a)
				if err != nil {
					return err
				}
				b, err := a.bookings.Book(ctx, slotID, patientID, comment)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "booking %s slot=%s patient=%s\n", b.ID, slotID, patientID)
				return nil
			})
		},
	}
	cmd.Flags().String("slot", "", "slot id")
	addPatientFlags(cmd)
	cmd.Flags().String("comment", "", "note for the doctor")
	_ = cmd.MarkFlagRequired("slot")
	return cmd
}

func cancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a booking and free its slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := uuidFlag(cmd, "booking")
				if err != nil {
					return err
				}
				if err := a.bookings.Cancel(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "booking %s cancelled\n", id)
				return nil
			})
		},
	}
	cmd.Flags().String("booking", "", "booking id")
	_ = cmd.MarkFlagRequired("booking")
	return cmd
}

func bookingsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "bookings", Short: "Inspect bookings"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a patient's bookings by slot time",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, _ := cmd.Flags().GetInt("page")
			size, _ := cmd.Flags().GetInt("size")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				patientID, err := patientFlag(ctx, cmd, a)
				if err != nil {
					return err
				}
				rng, err := rangeFlags(cmd, a.loc)
				if err != nil {
					return err
				}

				res, err := a.bookings.ListPatientBookings(ctx, patientID, rng, page, size)
				if err != nil {
					return err
				}
				for _, b := range res.Items {
					line := fmt.Sprintf("booking %s", b.ID)
					if b.Slot != nil {
						tr := calendar.TimeRange{Start: b.Slot.StartsAt, End: b.Slot.EndsAt}
						line += " " + calendar.FormatSlotForUser(tr, a.loc, false, "")
					}
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "page %d, %d of %d bookings\n", res.Page, len(res.Items), res.Total)
				return nil
			})
		},
	}
	addPatientFlags(listCmd)
	addRangeFlags(listCmd)
	addPageFlags(listCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show audit events of a booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := uuidFlag(cmd, "booking")
				if err != nil {
					return err
				}
				events, err := a.bookings.BookingHistory(ctx, id)
				if err != nil {
					return err
				}
				printEvents(cmd, a.loc, events)
				return nil
			})
		},
	}
	historyCmd.Flags().String("booking", "", "booking id")
	_ = historyCmd.MarkFlagRequired("booking")

	cmd.AddCommand(listCmd, historyCmd)
	return cmd
}

func printSlot(cmd *cobra.Command, loc *time.Location, s *model.Slot) {
	tr := calendar.TimeRange{Start: s.StartsAt, End: s.EndsAt}
	fmt.Fprintln(cmd.OutOrStdout(), calendar.FormatSlotForUser(tr, loc, true, s.ID.String()))
}

func addPatientFlags(cmd *cobra.Command) {
	cmd.Flags().String("patient", "", "patient id")
	cmd.Flags().String("phone", "", "patient contact phone, instead of --patient")
	cmd.MarkFlagsOneRequired("patient", "phone")
	cmd.MarkFlagsMutuallyExclusive("patient", "phone")
}

// patientFlag берёт пациента из --patient или ищет по --phone.
func patientFlag(ctx context.Context, cmd *cobra.Command, a *app) (uuid.UUID, error) {
	if phone, _ := cmd.Flags().GetString("phone"); phone != "" {
		p, err := a.availability.FindPatientByPhone(ctx, phone)
		if err != nil {
			return uuid.Nil, err
		}
		return p.ID, nil
	}
	return uuidFlag(cmd, "patient")
}

func printEvents(cmd *cobra.Command, loc *time.Location, events []model.Event) {
	for _, e := range events {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", e.CreatedAt.In(loc).Format(time.RFC3339), e.EventType)
	}
}

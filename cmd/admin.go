package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
)

func doctorCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "doctor", Short: "Manage doctors"}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a doctor",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			description, _ := cmd.Flags().GetString("description")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				d, err := a.availability.CreateDoctor(ctx, name, description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "doctor %s %s\n", d.ID, d.DisplayName)
				return nil
			})
		},
	}
	addCmd.Flags().String("name", "", "display name")
	addCmd.Flags().String("description", "", "specialty or short description")
	_ = addCmd.MarkFlagRequired("name")

	cmd.AddCommand(addCmd)
	return cmd
}

func patientCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "patient", Short: "Manage patients"}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			phone, _ := cmd.Flags().GetString("phone")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				p, err := a.availability.CreatePatient(ctx, name, phone)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "patient %s %s\n", p.ID, p.DisplayName)
				return nil
			})
		},
	}
	addCmd.Flags().String("name", "", "display name")
	addCmd.Flags().String("phone", "", "contact phone")
	_ = addCmd.MarkFlagRequired("name")

	cmd.AddCommand(addCmd)
	return cmd
}

func availabilityCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "availability", Short: "Manage availability definitions"}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a date-ranged availability definition for a doctor",
		RunE: func(cmd *cobra.Command, args []string) error {
			duration, _ := cmd.Flags().GetInt("duration")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				doctorID, err := uuidFlag(cmd, "doctor")
				if err != nil {
					return err
				}
				from, err := dateFlag(cmd, "from", a.loc)
				if err != nil {
					return err
				}
				to, err := dateFlag(cmd, "to", a.loc)
				if err != nil {
					return err
				}

				def, err := a.availability.CreateAvailabilityDefinition(ctx, doctorID, from, to, duration)
				if err != nil {
					return err
				}
				printDefinition(cmd, def)
				return nil
			})
		},
	}
	createCmd.Flags().String("doctor", "", "doctor id")
	createCmd.Flags().String("from", "", "first day, YYYY-MM-DD")
	createCmd.Flags().String("to", "", "last day (inclusive), YYYY-MM-DD")
	createCmd.Flags().Int("duration", model.DefaultSlotDurationMin, "slot duration in minutes")
	_ = createCmd.MarkFlagRequired("doctor")
	_ = createCmd.MarkFlagRequired("from")
	_ = createCmd.MarkFlagRequired("to")

	extendCmd := &cobra.Command{
		Use:   "extend",
		Short: "Move the last day of a definition forward",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := uuidFlag(cmd, "id")
				if err != nil {
					return err
				}
				to, err := dateFlag(cmd, "to", a.loc)
				if err != nil {
					return err
				}
				def, err := a.availability.ExtendAvailabilityDefinition(ctx, id, to)
				if err != nil {
					return err
				}
				printDefinition(cmd, def)
				return nil
			})
		},
	}
	extendCmd.Flags().String("id", "", "availability definition id")
	extendCmd.Flags().String("to", "", "new last day (inclusive), YYYY-MM-DD")
	_ = extendCmd.MarkFlagRequired("id")
	_ = extendCmd.MarkFlagRequired("to")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a doctor's definitions and their windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				doctorID, err := uuidFlag(cmd, "doctor")
				if err != nil {
					return err
				}
				defs, err := a.availability.ListAvailability(ctx, doctorID)
				if err != nil {
					return err
				}
				for i := range defs {
					printDefinition(cmd, &defs[i])
					for _, w := range defs[i].Windows {
						printWindow(cmd, &w)
					}
				}
				return nil
			})
		},
	}
	listCmd.Flags().String("doctor", "", "doctor id")
	_ = listCmd.MarkFlagRequired("doctor")

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a definition with its windows, slots and bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := uuidFlag(cmd, "id")
				if err != nil {
					return err
				}
				if err := a.availability.DeleteAvailabilityDefinition(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "availability %s deleted\n", id)
				return nil
			})
		},
	}
	deleteCmd.Flags().String("id", "", "availability definition id")
	_ = deleteCmd.MarkFlagRequired("id")

	cmd.AddCommand(createCmd, extendCmd, listCmd, deleteCmd)
	return cmd
}

func windowCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "window", Short: "Manage daily windows"}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Attach a daily time window to a definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				availabilityID, err := uuidFlag(cmd, "availability")
				if err != nil {
					return err
				}
				start, err := clockFlag(cmd, "start")
				if err != nil {
					return err
				}
				end, err := clockFlag(cmd, "end")
				if err != nil {
					return err
				}
				w, err := a.availability.CreateWindow(ctx, availabilityID, start, end)
				if err != nil {
					return err
				}
				printWindow(cmd, w)
				return nil
			})
		},
	}
	createCmd.Flags().String("availability", "", "availability definition id")
	createCmd.Flags().String("start", calendar.FormatClock(model.DefaultDailyStartHour*time.Hour), "daily start, HH:MM")
	createCmd.Flags().String("end", calendar.FormatClock(model.DefaultDailyEndHour*time.Hour), "daily end, HH:MM")
	_ = createCmd.MarkFlagRequired("availability")

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a window with its slots and bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := uuidFlag(cmd, "id")
				if err != nil {
					return err
				}
				if err := a.availability.DeleteWindow(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "window %s deleted\n", id)
				return nil
			})
		},
	}
	deleteCmd.Flags().String("id", "", "window id")
	_ = deleteCmd.MarkFlagRequired("id")

	cmd.AddCommand(createCmd, deleteCmd)
	return cmd
}

func printDefinition(cmd *cobra.Command, def *model.AvailabilityDefinition) {
	fmt.Fprintf(cmd.OutOrStdout(), "availability %s doctor=%s %s..%s every %d min\n",
		def.ID, def.DoctorID,
		time.Time(def.DateStart).Format(time.DateOnly),
		time.Time(def.DateEnd).Format(time.DateOnly),
		def.SlotDurationMin)
}

func printWindow(cmd *cobra.Command, w *model.Window) {
	fmt.Fprintf(cmd.OutOrStdout(), "  window %s %s-%s\n",
		w.ID,
		calendar.FormatClock(time.Duration(w.DailyStart)),
		calendar.FormatClock(time.Duration(w.DailyEnd)))
}

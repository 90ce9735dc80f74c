package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func runMonitorAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry, closeStore, err := openRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	threshold, err := cmd.Flags().GetFloat64("threshold")
	if err != nil {
		return err
	}
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold must be within [0, 1], got %v", threshold)
	}

	m, err := registry.Add(ctx, args[0], threshold)
	if err != nil {
		fmt.Printf("Added monitor %s (persistence degraded: %v)\n", m.ID, err)
		return nil
	}
	fmt.Printf("Added monitor %s query=%q threshold=%.2f interval=%s\n",
		m.ID, m.Query, m.AlertThreshold, m.CheckInterval)
	return nil
}

func runMonitorList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry, closeStore, err := openRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	monitors := registry.Monitors()
	if len(monitors) == 0 {
		fmt.Println("No monitors configured")
		return nil
	}
	for _, m := range monitors {
		state := "inactive"
		if m.IsActive {
			state = "active"
		}
		lastChecked := "never"
		if !m.LastChecked.IsZero() {
			lastChecked = m.LastChecked.Format(time.RFC3339)
		}
		fmt.Printf("%s  %-8s  query=%-24q threshold=%.2f alerts=%d last_checked=%s\n",
			m.ID, state, m.Query, m.AlertThreshold, m.AlertCount, lastChecked)
	}
	return nil
}

func runMonitorRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry, closeStore, err := openRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	removed, err := registry.Remove(ctx, args[0])
	if !removed {
		fmt.Printf("Monitor %s not found\n", args[0])
		return nil
	}
	if err != nil {
		fmt.Printf("Removed monitor %s (persistence degraded: %v)\n", args[0], err)
		return nil
	}
	fmt.Printf("Removed monitor %s\n", args[0])
	return nil
}

func runMonitorDeactivate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry, closeStore, err := openRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	deactivated, err := registry.Deactivate(ctx, args[0])
	if !deactivated {
		fmt.Printf("Monitor %s not found\n", args[0])
		return nil
	}
	if err != nil {
		fmt.Printf("Deactivated monitor %s (persistence degraded: %v)\n", args[0], err)
		return nil
	}
	fmt.Printf("Deactivated monitor %s\n", args[0])
	return nil
}

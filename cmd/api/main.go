package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"projectTracker/internal/app"
	"projectTracker/internal/config"

	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "путь к файлу конфигурации (по умолчанию ./config.yml)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ошибка конфигурации:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg)
	if err := a.Init(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ошибка инициализации:", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "сервер остановлен с ошибкой:", err)
		os.Exit(1)
	}
}

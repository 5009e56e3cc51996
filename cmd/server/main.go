// @title UPC Opt-Out Filing Server API
// @version 1.0
// @description Сервер интейка массовой подачи заявлений об опт-ауте UPC: импорт таблицы владельцев патентов, классификация заявителя, сборка и последовательная отправка заявок во внешний API суда.

// @host localhost:9999
// @BasePath /
// @schemes http https

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"optoutserver/database"
	"optoutserver/internal/config"
	"optoutserver/server"
)

func main() {
	log.Println("Запуск UPC Opt-Out Filing Server...")

	// .env необязателен, его отсутствие не ошибка
	if err := godotenv.Load(); err == nil {
		log.Println("Переменные окружения загружены из .env")
	}

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	journal, err := database.NewJournalDB(cfg.JournalPath)
	if err != nil {
		log.Fatalf("Ошибка открытия журнала отправок: %v", err)
	}
	defer journal.Close()
	log.Printf("Используется журнал отправок: %s", cfg.JournalPath)

	srv := server.NewServer(cfg, journal)

	// Запускаем сервер в отдельной горутине
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	// Ждем сигнал завершения
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Получен сигнал завершения, останавливаем сервер...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Ошибка остановки сервера: %v", err)
	}

	log.Println("Сервер остановлен")
}

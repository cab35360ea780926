package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"pharmatrace/config"
	"pharmatrace/internal/pkg/cache"
	"pharmatrace/internal/pkg/database"
	"pharmatrace/internal/pkg/logger"
	"pharmatrace/internal/pkg/mailer"
	"pharmatrace/internal/pkg/ratelimit"

	// Camadas do núcleo para Injeção de Dependências
	"pharmatrace/internal/realtime"
	"pharmatrace/internal/repository/alertrepo"
	"pharmatrace/internal/repository/companyrepo"
	"pharmatrace/internal/repository/sensorrepo"
	"pharmatrace/internal/repository/shipmentrepo"
	"pharmatrace/internal/service/alertservice"
	"pharmatrace/internal/service/sensorservice"
	"pharmatrace/internal/service/shipmentservice"
	"pharmatrace/internal/storage"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando núcleo PharmaTrace...")

	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		// Sem .env seguimos em frente: as variáveis essenciais podem estar
		// no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL hospedado)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache local (TTL store) — construído explicitamente aqui; a varredura
	// de limpeza começa e termina com o ciclo de vida do processo.
	cacheStore := cache.NewStore(cfg.CacheSweepInterval, appLog)
	cacheStore.StartSweeper()
	defer cacheStore.StopSweeper()
	appLog.Info("Cache local inicializado (estado local ao processo: rodar uma única instância).", nil)

	// C. Rate limiter sobre o cache (o middleware externo compara com Max()).
	limiter := ratelimit.NewLimiter(cacheStore, cfg.RateLimitWindow, cfg.RateLimitMaxRequests)
	_ = limiter // Entregue aos controllers externos junto com os serviços.

	// D. Mailer (best-effort; sem SMTP_HOST todo envio falha e é só registrado)
	if cfg.SMTPHost == "" {
		appLog.Warn("SMTP_HOST não configurado; notificações de alerta por e-mail serão descartadas.", nil)
	}
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.MailFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	notifier := mailer.NewNotifier(smtpMailer, appLog)

	// E. Roteador realtime (salas company:{id} / shipment:{id})
	hub := realtime.NewHub(appLog)

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Store -> Repository -> Service

	store := storage.NewPostgres(db, cfg.DBTimeout, appLog)

	shipmentRepo := shipmentrepo.NewShipmentRepository(store, cacheStore, appLog)
	sensorRepo := sensorrepo.NewSensorRepository(store)
	alertRepo := alertrepo.NewAlertRepository(store)
	companyRepo := companyrepo.NewCompanyRepository(store)
	appLog.Debug("Repositórios inicializados.", nil)

	shipmentSvc := shipmentservice.NewService(shipmentRepo, hub, appLog)
	sensorSvc := sensorservice.NewService(sensorRepo, appLog)
	alertSvc := alertservice.NewService(alertRepo, companyRepo, hub, notifier, appLog)
	appLog.Debug("Serviços inicializados.", nil)

	// Os serviços e o hub são consumidos pelos controllers HTTP e pelo
	// transporte realtime, que vivem fora deste núcleo.
	_ = shipmentSvc
	_ = sensorSvc
	_ = alertSvc

	appLog.Info("Núcleo PharmaTrace pronto.", map[string]interface{}{
		"environment": cfg.Environment,
	})

	// 4. Execução e Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando núcleo...", nil)
	appLog.Info("Núcleo encerrado com sucesso.", nil)
}

package container

import (
	"net/http"
	"time"

	"github.com/atelierclub/drops/cmd/webhooks/repository"
	"github.com/atelierclub/drops/cmd/webhooks/service"
	"github.com/atelierclub/drops/common/bootstrap"
	"github.com/atelierclub/drops/common/clients"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	DropRepo          *repository.DropRepository
	MemberRepo        *repository.MemberRepository
	ParticipationRepo *repository.ParticipationRepository

	// Services
	Verifier   *service.SignatureVerifier
	Reconciler *service.Reconciler
	Mailer     *service.Mailer
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	// Initialize repositories
	dropRepo := repository.NewDropRepository(components.DB)
	memberRepo := repository.NewMemberRepository(components.DB)
	participationRepo := repository.NewParticipationRepository(components.DB)

	// Initialize services (bottom-up: dependencies first)
	verifier := service.NewSignatureVerifier(cfg.Webhook.ShopifySecret, cfg.IsDevelopment(), log)

	var marker service.DeliveryMarker
	if components.Redis != nil {
		marker = components.Redis
	}

	reconciler := service.NewReconciler(
		dropRepo,
		memberRepo,
		participationRepo,
		marker,
		cfg.Webhook.DedupTTL,
		log,
	)

	httpClient := clients.NewHTTPClient(&http.Client{Timeout: 10 * time.Second}, log)

	var sender service.Sender
	if cfg.Email.APIKey != "" {
		sender = clients.NewResendClient(httpClient, cfg.Email.APIKey, cfg.Email.BaseURL, log)
	}
	mailer := service.NewMailer(sender, cfg.Email.From, cfg.Email.Operators, log)

	return &Container{
		Components:        components,
		DropRepo:          dropRepo,
		MemberRepo:        memberRepo,
		ParticipationRepo: participationRepo,
		Verifier:          verifier,
		Reconciler:        reconciler,
		Mailer:            mailer,
	}, nil
}

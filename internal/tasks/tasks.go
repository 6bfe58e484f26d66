package tasks

import (
	"context"
	"log"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
	"github.com/sushil-kumar-saw/mitra-farm/internal/email"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
	"github.com/sushil-kumar-saw/mitra-farm/internal/storage"
)

// Task types.
const (
	TypeEmailDelivery = "email:deliver"
	TypeImageProcess  = "image:process"
)

// Queue names and their priorities.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueImages   = "images"
)

// --- Task Client (Enqueuing tasks) ---

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

// NewClient returns an asynq client sharing the connection settings of rdb.
func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	emailSender    email.Sender
	storageService storage.IS3Storage
	listingService services.IListingService
	userService    services.IUserService
}

// NewTaskProcessor creates a TaskProcessor. storageService may be nil when S3
// is not configured, in which case image tasks are dropped.
func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	storageService storage.IS3Storage,
	listingService services.IListingService,
	userService services.IUserService,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		emailSender:    emailSender,
		storageService: storageService,
		listingService: listingService,
		userService:    userService,
	}
}

// SetupServer configures an Asynq server and the mux for the given worker
// roles. Both are nil when neither role is requested. The caller runs the
// server.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker bool, isBgWorker bool) (*asynq.Server, *asynq.ServeMux) {
	if !isBgWorker && !isImageWorker {
		log.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	queues := map[string]int{}
	mux := asynq.NewServeMux()

	if isBgWorker {
		queues[QueueCritical] = 6
		queues[QueueDefault] = 3
		mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
		log.Println("Registered background task handlers.")
	}
	if isImageWorker {
		queues[QueueImages] = 5
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		log.Println("Registered image processing task handlers.")
	}

	srv := asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Queues: queues,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)
	return srv, mux
}

package main

import (
	"CourseForge/config"
	"CourseForge/internal/handler"
	"CourseForge/internal/repo"
	"CourseForge/internal/service"
	"CourseForge/internal/storage"
	"CourseForge/router"
	"context"
	"log"
)

// main initializes services and starts the HTTP server.
func main() {
	cfg := config.Load()
	ctx := context.Background()

	mongo := repo.MustConnectMongo(ctx, cfg)
	rdb := repo.MustConnectRedis(ctx, cfg)
	store := storage.MustConnect(ctx, cfg)

	files := service.NewFileService(store, mongo.Files(), repo.NewRedisLocker(rdb, cfg.LockTTL), cfg)
	files.SetURLCache(repo.NewURLCache(rdb, cfg.AccessURLExpiry))
	courses := service.NewCourseService(mongo.Courses())

	r := router.InitRouter(cfg,
		handler.NewFileHandler(files),
		handler.NewCourseHandler(courses),
		handler.NewAuthHandler(cfg.JWTSecret),
	)

	if err := r.Run(cfg.ServerAddr); err != nil {
		log.Fatal("server exited: ", err)
	}
}

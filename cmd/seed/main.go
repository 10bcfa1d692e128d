// Command main runs the store seeder for Pinkbook.
package main

import (
	"context"
	"flag"
	"io"
	"log"

	"pinkbook/internal/config"
	"pinkbook/internal/seed"
	"pinkbook/internal/server"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 50, "Number of posts to create")
	withProfile := flag.Bool("profile", true, "Also write a generated display profile")
	flag.Parse()

	log.Printf("Seeding target: %d users, %d posts, profile=%v", *numUsers, *numPosts, *withProfile)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	kv, _, err := server.OpenStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() {
		if closer, ok := kv.(io.Closer); ok {
			_ = closer.Close()
		}
	}()

	users, posts, err := seed.NewSeeder(kv).Run(context.Background(), seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		WithProfile: *withProfile,
	})
	if err != nil {
		log.Fatalf("Seeding failed after %d users and %d posts: %v", users, posts, err)
	}
	log.Println("Seeding complete")
}

package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/cli"
	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

func main() {

	cfg := config.LoadConfig()

	c, err := client.NewGRPCClient(cfg.ServerEndpointAddr)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer c.Close()

	if err := cli.SignIn(context.Background(), c, bufio.NewReader(os.Stdin), os.Stdout, cfg.Login, cfg.Timeout); err != nil {
		log.Fatalf("%v", err)
	}

}

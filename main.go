package main

import server "github.com/delwarHosen/pop-chat-server/cmd/server"

func main() {
	server.NewServer().Run()
}

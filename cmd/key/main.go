package main

import (
	"log"

	"github.com/citizenwallet/dao/pkg/dao"
)

func main() {
	log.Default().Println("generating...")
	log.Default().Println(" ")

	key, addr, err := dao.GenerateHexPrivateKey()
	if err != nil {
		log.Fatal(err)
	}

	log.Default().Printf("key: %s\n", key)
	log.Default().Printf("address: %s\n", addr)
}

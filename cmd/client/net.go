package main

import (
	"fmt"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mathkombat/model"
	"github.com/zucenko/mathkombat/server"
)

// Connection moves messages between the websocket and the ebiten loop,
// which only ever polls In and calls Send.
type Connection struct {
	conn  *websocket.Conn
	codec server.Codec
	In    chan model.ServerMessage
	out   chan model.ClientMessage
	done  chan struct{}
}

func Dial(url string, codec server.Codec) (*Connection, error) {
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?codec=%s", url, codec.Name()), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Connection{
		conn:  conn,
		codec: codec,
		In:    make(chan model.ServerMessage, 64),
		out:   make(chan model.ClientMessage, 16),
		done:  make(chan struct{}),
	}
	go c.loopRead()
	go c.loopWrite()
	return c, nil
}

// Send never blocks the frame; input is dropped when the writer lags.
func (c *Connection) Send(cm model.ClientMessage) {
	select {
	case c.out <- cm:
	case <-c.done:
	default:
		log.Warn("Connection.Send dropping message, writer busy")
	}
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) loopRead() {
	defer close(c.done)
	defer close(c.In)
	for {
		_, r, err := c.conn.NextReader()
		if err != nil {
			log.Infof("Connection.loopRead ended: %v", err)
			return
		}
		msg := model.ServerMessage{}
		if err := c.codec.Decode(r, &msg); err != nil {
			log.Warnf("Connection.loopRead cant decode: %v", err)
			continue
		}
		c.In <- msg
	}
}

func (c *Connection) loopWrite() {
	for {
		select {
		case <-c.done:
			return
		case cm := <-c.out:
			w, err := c.conn.NextWriter(c.codec.MessageType())
			if err != nil {
				log.Warnf("Connection.loopWrite cant get writer: %v", err)
				return
			}
			if err := c.codec.Encode(w, cm); err != nil {
				log.Warnf("Connection.loopWrite cant encode: %v", err)
			}
			if err := w.Close(); err != nil {
				log.Warnf("Connection.loopWrite cant flush: %v", err)
				return
			}
		}
	}
}

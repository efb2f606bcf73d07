/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Seednode/stopots/games/stop"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// shareURL is the link a QR code for room id points at.
func shareURL(cfg *Config, r *http.Request, id stop.RoomID) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}

	return scheme + "://" + r.Host + cfg.prefix + "/room/" + string(id)
}

func serveRooms(cfg *Config, log zerolog.Logger, gw *stop.Gateway, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		rooms := gw.Registry().PublicRooms()
		if rooms == nil {
			rooms = []stop.RoomSummary{}
		}

		data, err := json.Marshal(rooms)
		if err != nil {
			http.Error(w, "failed to list rooms", http.StatusInternalServerError)
			errs <- err

			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err

			return
		}

		log.Debug().
			Int("rooms", len(rooms)).
			Str("size", humanReadableSize(int64(written))).
			Str("ip", realIP(r)).
			Dur("elapsed", time.Since(startTime).Round(time.Microsecond)).
			Msg("served room list")
	}
}

func serveQR(cfg *Config, log zerolog.Logger, gw *stop.Gateway, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := stop.RoomID(ps.ByName("roomid"))
		if !stop.ValidRoomID(id) {
			http.Error(w, stop.ErrInvalidRoomID.Error(), http.StatusBadRequest)
			return
		}

		if _, ok := gw.Registry().Get(id); !ok {
			http.Error(w, stop.ErrRoomNotFound.Error(), http.StatusNotFound)
			return
		}

		png, err := qrcode.Encode(shareURL(cfg, r, id), qrcode.Medium, qrSize)
		if err != nil {
			log.Error().Err(err).Str("room", string(id)).Msg("qr generation failed")
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		securityHeaders(cfg, w)

		_, err = w.Write(png)
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveSocket(log zerolog.Logger, gw *stop.Gateway) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		log.Debug().Str("ip", realIP(r)).Msg("socket opened")

		gw.ServeHTTP(w, r)
	}
}

func registerStopGame(cfg *Config, log zerolog.Logger, gw *stop.Gateway, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/ws", serveSocket(log, gw))

	mux.GET(cfg.prefix+"/rooms", serveRooms(cfg, log, gw, errs))

	mux.GET(cfg.prefix+"/room/:roomid/qr", serveQR(cfg, log, gw, errs))
}

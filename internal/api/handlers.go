package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bohrium-dev/bohrium-core/internal/codec"
	"github.com/bohrium-dev/bohrium-core/internal/entity"
)

// The entity handlers are generic over the kind: the five top-level
// registries and the three message sub-resources all route through the
// same four handler constructors, parameterised by descriptor. The codec
// is negotiated per request, so one route serves JSON, XML, YAML, and
// HTML renditions of the same operation.

// handleCollection serves a top-level collection route:
// GET reads all, POST creates, PUT is rejected, DELETE empties the kind.
func (s *Server) handleCollection(typ entity.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.negotiate(r, typ)
		ad := s.adapters[typ.Kind]

		switch r.Method {
		case http.MethodGet:
			objs, err := ad.ReadAll(r.Context())
			if err != nil {
				writeEntityError(w, err)
				return
			}
			s.writeEncoded(w, c, objs)

		case http.MethodPost:
			kv, err := s.decodeBody(r, c)
			if err != nil {
				writeEntityError(w, err)
				return
			}
			obj, err := ad.Create(r.Context(), callerFrom(r.Context()), kv)
			if err != nil {
				writeEntityError(w, err)
				return
			}
			s.writeMutation(w, r, c, obj)

		case http.MethodPut:
			// Bulk update is not a supported operation on any kind.
			writeEntityError(w, ad.UpdateAll(r.Context()))

		case http.MethodDelete:
			if _, err := ad.DeleteAll(r.Context()); err != nil {
				writeEntityError(w, err)
				return
			}
			s.writeEmpty(w, c)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

// handleMember serves a top-level member route:
// GET reads one, PUT updates (upserting when absent), DELETE removes.
// POST is the form-friendly mutation verb: an HTML submission carrying
// method=delete routes to the delete path, anything else updates.
func (s *Server) handleMember(typ entity.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serveMember(w, r, typ, chi.URLParam(r, "id"))
	}
}

// parentField names the kv key each message kind references its parent
// by. The child-create handler injects the URL parent id under it when
// the body leaves it out.
var parentField = map[string]string{
	entity.KindDMessage: "dev_id",
	entity.KindPMessage: "pub_id",
	entity.KindUMessage: "to_user_id",
}

// handleChildCollection serves a nested message collection
// (/device/{id}/message/ and its publication and user counterparts).
// POST creates the message under the named parent and fires the
// post-create push hook; DELETE clears that parent's messages only.
func (s *Server) handleChildCollection(typ entity.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.negotiate(r, typ)
		ad := s.adapters[typ.Kind]
		parentID := chi.URLParam(r, "id")

		switch r.Method {
		case http.MethodGet:
			objs, err := ad.ReadChildren(r.Context(), parentID)
			if err != nil {
				writeEntityError(w, err)
				return
			}
			s.writeEncoded(w, c, objs)

		case http.MethodPost:
			kv, err := s.decodeBody(r, c)
			if err != nil {
				writeEntityError(w, err)
				return
			}
			if field := parentField[typ.Kind]; field != "" && kv.Get(field, "") == "" {
				kv[field] = parentID
			}
			obj, err := ad.CreateChild(r.Context(), callerFrom(r.Context()), parentID, kv)
			if err != nil {
				writeEntityError(w, err)
				return
			}
			s.writeMutation(w, r, c, obj)

		case http.MethodPut:
			writeEntityError(w, ad.UpdateAll(r.Context()))

		case http.MethodDelete:
			if _, err := ad.DeleteChildren(r.Context(), parentID); err != nil {
				writeEntityError(w, err)
				return
			}
			s.writeEmpty(w, c)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

// handleChildMember serves a nested message member route.
func (s *Server) handleChildMember(typ entity.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serveMember(w, r, typ, chi.URLParam(r, "msg_id"))
	}
}

func (s *Server) serveMember(w http.ResponseWriter, r *http.Request, typ entity.Descriptor, id string) {
	c := s.negotiate(r, typ)
	ad := s.adapters[typ.Kind]

	// Browsers reach member pages through generated links; a blank id
	// means the form wiring is broken, not that the object is missing.
	if id == "" {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}

	switch r.Method {
	case http.MethodGet:
		obj, err := ad.ReadOne(r.Context(), id)
		if err != nil {
			writeEntityError(w, err)
			return
		}
		s.writeEncoded(w, c, obj)

	case http.MethodPut:
		kv, err := s.decodeBody(r, c)
		if err != nil {
			writeEntityError(w, err)
			return
		}
		obj, err := ad.UpdateOne(r.Context(), callerFrom(r.Context()), id, kv)
		if err != nil {
			writeEntityError(w, err)
			return
		}
		s.writeMutation(w, r, c, obj)

	case http.MethodPost:
		kv, err := s.decodeBody(r, c)
		if err != nil {
			writeEntityError(w, err)
			return
		}
		if kv.Get("method", "") == "delete" {
			s.deleteMember(w, r, typ, id)
			return
		}
		obj, err := ad.UpdateOne(r.Context(), callerFrom(r.Context()), id, kv)
		if err != nil {
			writeEntityError(w, err)
			return
		}
		s.writeMutation(w, r, c, obj)

	case http.MethodDelete:
		s.deleteMember(w, r, typ, id)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) deleteMember(w http.ResponseWriter, r *http.Request, typ entity.Descriptor, id string) {
	c := s.negotiate(r, typ)
	if _, err := s.adapters[typ.Kind].DeleteOne(r.Context(), id); err != nil {
		writeEntityError(w, err)
		return
	}
	if html, ok := c.(*codec.HTML); ok {
		http.Redirect(w, r, html.RedirectURL(nil), http.StatusFound)
		return
	}
	s.writeEmpty(w, c)
}

// negotiate selects the response codec. GETs negotiate on Accept,
// mutations on Content-Type; DELETE matches any. JSON is the fallback
// when nothing matches.
func (s *Server) negotiate(r *http.Request, typ entity.Descriptor) codec.Codec {
	header := r.Header.Get("Accept")
	if r.Method == http.MethodPost || r.Method == http.MethodPut {
		header = r.Header.Get("Content-Type")
	}

	switch {
	case strings.Contains(header, "text/html"),
		strings.Contains(header, "application/x-www-form-urlencoded"):
		caller := callerFrom(r.Context())
		visibility := codec.VisibilityDeclared
		if caller.Admin {
			visibility = codec.VisibilityAll
		}
		return codec.NewHTML(typ, visibility, caller)
	case strings.Contains(header, "xml"):
		return codec.NewXML()
	case strings.Contains(header, "yaml"):
		return codec.NewYAML()
	default:
		return codec.NewJSON()
	}
}

// decodeBody reads and decodes the request body with the negotiated codec.
func (s *Server) decodeBody(r *http.Request, c codec.Codec) (entity.KV, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return c.Decode(body)
}

// writeEncoded writes a successful read response.
func (s *Server) writeEncoded(w http.ResponseWriter, c codec.Codec, v any) {
	data, err := c.Encode(v)
	if err != nil {
		writeEntityError(w, err)
		return
	}
	w.Header().Set("Content-Type", c.ContentType())
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(data)
}

// writeMutation completes a create or update. Browser clients are
// redirected to the object's page; API clients get the object back in
// the request's own representation.
func (s *Server) writeMutation(w http.ResponseWriter, r *http.Request, c codec.Codec, obj entity.Entity) {
	if html, ok := c.(*codec.HTML); ok {
		http.Redirect(w, r, html.RedirectURL(obj), http.StatusFound)
		return
	}
	s.writeEncoded(w, c, obj)
}

// writeEmpty acknowledges a delete with an empty body.
func (s *Server) writeEmpty(w http.ResponseWriter, c codec.Codec) {
	w.Header().Set("Content-Type", c.ContentType())
	w.WriteHeader(http.StatusOK)
}

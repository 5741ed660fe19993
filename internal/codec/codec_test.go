package codec

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bohrium-dev/bohrium-core/internal/entity"
)

// testDevice builds a device with populated metadata.
func testDevice(t *testing.T, name, devID string) *entity.Device {
	t.Helper()

	d := &entity.Device{}
	err := d.Load(entity.Identity{UserID: "tester@example.com", Nickname: "tester"}, entity.KV{
		"name":   name,
		"dev_id": devID,
		"reg_id": "reg-1",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	meta := d.Meta()
	meta.Key = "key-" + devID
	meta.Created = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	meta.Modified = time.Date(2026, 3, 2, 11, 45, 30, 0, time.UTC)
	meta.Revision = 3
	return d
}

func TestJSON(t *testing.T) {
	c := NewJSON()

	t.Run("encodes single as flat object", func(t *testing.T) {
		data, err := c.Encode(entity.Entity(testDevice(t, "Lamp", "aa01")))
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}

		var got map[string]string
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("output is not a flat object: %v", err)
		}
		if got["name"] != "Lamp" {
			t.Errorf("name = %q, want %q", got["name"], "Lamp")
		}
		if got["created"] != "2026-03-01 10:30:00" {
			t.Errorf("created = %q, want wire time format", got["created"])
		}
		if got["revision"] != "3" {
			t.Errorf("revision = %q, want %q", got["revision"], "3")
		}
	})

	t.Run("encodes collection as array", func(t *testing.T) {
		data, err := c.Encode([]entity.Entity{
			testDevice(t, "One", "aa01"),
			testDevice(t, "Two", "aa02"),
		})
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}

		var got []map[string]string
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("output is not an array: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d objects, want 2", len(got))
		}
	})

	t.Run("encodes empty collection", func(t *testing.T) {
		data, err := c.Encode([]entity.Entity{})
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("output = %q, want empty array", data)
		}
	})

	t.Run("decode round-trips fields", func(t *testing.T) {
		kv, err := c.Decode([]byte(`{"name":"Lamp","dev_id":"aa01","revision":3}`))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if kv["name"] != "Lamp" || kv["dev_id"] != "aa01" {
			t.Errorf("kv = %v", kv)
		}
		if kv["revision"] != "3" {
			t.Errorf("revision = %q, want stringified %q", kv["revision"], "3")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		if _, err := c.Decode([]byte(`{"name":`)); !errors.Is(err, ErrDecode) {
			t.Errorf("Decode() error = %v, want ErrDecode", err)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		if _, err := c.Decode(nil); !errors.Is(err, ErrEmptyBody) {
			t.Errorf("Decode() error = %v, want ErrEmptyBody", err)
		}
	})
}

func TestXML(t *testing.T) {
	c := NewXML()

	t.Run("encodes single as attributed element", func(t *testing.T) {
		data, err := c.Encode(entity.Entity(testDevice(t, "Lamp", "aa01")))
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}

		out := string(data)
		if !strings.HasPrefix(out, "<device ") {
			t.Errorf("output does not start with device element: %q", out)
		}
		if strings.Contains(out, "<root>") {
			t.Error("single encode must not carry the root wrapper")
		}
		if !strings.Contains(out, `dev_id="aa01"`) {
			t.Errorf("missing dev_id attribute: %q", out)
		}
		if !strings.Contains(out, `modified="2026-03-02 11:45:30"`) {
			t.Errorf("missing formatted modified attribute: %q", out)
		}
	})

	t.Run("wraps collection in root", func(t *testing.T) {
		data, err := c.Encode([]entity.Entity{
			testDevice(t, "One", "aa01"),
			testDevice(t, "Two", "aa02"),
		})
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}

		out := string(data)
		if !strings.HasPrefix(out, "<root>") || !strings.HasSuffix(strings.TrimSpace(out), "</root>") {
			t.Errorf("collection not wrapped in root: %q", out)
		}
		if strings.Count(out, "<device ") != 2 {
			t.Errorf("want 2 device elements: %q", out)
		}
	})

	t.Run("decode reads attributes", func(t *testing.T) {
		kv, err := c.Decode([]byte(`<device name="Lamp" dev_id="aa01"></device>`))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if kv["name"] != "Lamp" || kv["dev_id"] != "aa01" {
			t.Errorf("kv = %v", kv)
		}
	})

	t.Run("decode tolerates wrapper and siblings", func(t *testing.T) {
		body := []byte(`<root><device dev_id="aa01"/><device dev_id="aa02"/></root>`)

		kv, err := c.Decode(body)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if kv["dev_id"] != "aa01" {
			t.Errorf("Decode picked %q, want first sibling", kv["dev_id"])
		}

		all, err := c.DecodeAll(body)
		if err != nil {
			t.Fatalf("DecodeAll() error = %v", err)
		}
		if len(all) != 2 || all[1]["dev_id"] != "aa02" {
			t.Errorf("DecodeAll = %v", all)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		if _, err := c.Decode([]byte(`<device name=`)); !errors.Is(err, ErrDecode) {
			t.Errorf("Decode() error = %v, want ErrDecode", err)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		if _, err := c.Decode([]byte("  ")); !errors.Is(err, ErrEmptyBody) {
			t.Errorf("Decode() error = %v, want ErrEmptyBody", err)
		}
	})
}

func TestYAML(t *testing.T) {
	c := NewYAML()

	t.Run("encodes single as flat mapping", func(t *testing.T) {
		data, err := c.Encode(entity.Entity(testDevice(t, "Lamp", "aa01")))
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}

		var got map[string]string
		if err := yaml.Unmarshal(data, &got); err != nil {
			t.Fatalf("output is not a flat mapping: %v", err)
		}
		if got["name"] != "Lamp" {
			t.Errorf("name = %q, want %q", got["name"], "Lamp")
		}
		if got["created"] != "2026-03-01 10:30:00" {
			t.Errorf("created = %q, want wire time format", got["created"])
		}

		// Schema order preserved: name is the first declared key.
		if !strings.HasPrefix(strings.TrimSpace(string(data)), "name:") {
			t.Errorf("mapping does not start with first schema key: %q", data)
		}
	})

	t.Run("encodes collection as sequence", func(t *testing.T) {
		data, err := c.Encode([]entity.Entity{
			testDevice(t, "One", "aa01"),
			testDevice(t, "Two", "aa02"),
		})
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}

		var got []map[string]string
		if err := yaml.Unmarshal(data, &got); err != nil {
			t.Fatalf("output is not a sequence: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d mappings, want 2", len(got))
		}
	})

	t.Run("decode round-trips fields", func(t *testing.T) {
		kv, err := c.Decode([]byte("name: Lamp\ndev_id: aa01\nrevision: 3\n"))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if kv["name"] != "Lamp" || kv["revision"] != "3" {
			t.Errorf("kv = %v", kv)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		if _, err := c.Decode([]byte("name: [unclosed")); !errors.Is(err, ErrDecode) {
			t.Errorf("Decode() error = %v, want ErrDecode", err)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		if _, err := c.Decode(nil); !errors.Is(err, ErrEmptyBody) {
			t.Errorf("Decode() error = %v, want ErrEmptyBody", err)
		}
	})
}

func TestHTML(t *testing.T) {
	viewer := entity.Identity{UserID: "tester@example.com", Nickname: "tester"}

	t.Run("renders entity form with readonly metadata", func(t *testing.T) {
		c := NewHTML(entity.DeviceType, VisibilityDeclared, viewer)
		data, err := c.Encode(entity.Entity(testDevice(t, "Lamp", "aa01")))
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}

		out := string(data)
		if !strings.Contains(out, `value="Lamp"`) {
			t.Errorf("missing field value: %s", out)
		}
		if !strings.Contains(out, `name="revision" value="3" readonly`) {
			t.Errorf("metadata field not readonly: %s", out)
		}
		if !strings.Contains(out, "signed in as tester") {
			t.Errorf("missing viewer display: %s", out)
		}
		if strings.Contains(out, "/auth/") {
			t.Errorf("page links an auth route that is not served: %s", out)
		}
		if !strings.Contains(out, `name="method" value="delete"`) {
			t.Errorf("missing delete form: %s", out)
		}
	})

	t.Run("VisibilityAll removes readonly", func(t *testing.T) {
		c := NewHTML(entity.DeviceType, VisibilityAll, viewer)
		data, err := c.Encode(entity.Entity(testDevice(t, "Lamp", "aa01")))
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if strings.Contains(string(data), "readonly") {
			t.Error("VisibilityAll output still contains readonly fields")
		}
	})

	t.Run("renders collection table with create form", func(t *testing.T) {
		c := NewHTML(entity.DeviceType, VisibilityDeclared, viewer)
		data, err := c.Encode([]entity.Entity{testDevice(t, "Lamp", "aa01")})
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}

		out := string(data)
		if !strings.Contains(out, "<th>dev_id</th>") {
			t.Errorf("missing schema header row: %s", out)
		}
		if !strings.Contains(out, `href="/device/aa01/"`) {
			t.Errorf("missing item link: %s", out)
		}
		if !strings.Contains(out, `action="/device/"`) {
			t.Errorf("missing create form: %s", out)
		}
	})

	t.Run("decodes form submissions", func(t *testing.T) {
		c := NewHTML(entity.DeviceType, VisibilityDeclared, viewer)
		kv, err := c.Decode([]byte("name=Lamp+Two&dev_id=aa02&method=delete"))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if kv["name"] != "Lamp Two" || kv["method"] != "delete" {
			t.Errorf("kv = %v", kv)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		c := NewHTML(entity.DeviceType, VisibilityDeclared, viewer)
		if _, err := c.Decode(nil); !errors.Is(err, ErrEmptyBody) {
			t.Errorf("Decode() error = %v, want ErrEmptyBody", err)
		}
	})

	t.Run("redirect targets", func(t *testing.T) {
		c := NewHTML(entity.DeviceType, VisibilityDeclared, viewer)
		d := testDevice(t, "Lamp", "aa01")
		if got := c.RedirectURL(d); got != "/device/aa01/" {
			t.Errorf("RedirectURL(obj) = %q", got)
		}
		if got := c.RedirectURL(nil); got != "/device/" {
			t.Errorf("RedirectURL(nil) = %q", got)
		}
	})
}

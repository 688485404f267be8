package ast

import "testing"

func TestEffectiveSlotWGSL(t *testing.T) {
	b := ResourceBinding{Group: 1, Binding: 2, HasGroupBinding: true}
	slot, ok := b.EffectiveSlot(LangWGSL)
	if !ok {
		t.Fatal("expected a slot for an explicit group/binding")
	}
	if slot != "g1/b2" {
		t.Errorf("expected %q, got %q", "g1/b2", slot)
	}

	if _, ok := (ResourceBinding{}).EffectiveSlot(LangWGSL); ok {
		t.Error("expected no slot without an explicit binding")
	}
}

func TestEffectiveSlotHLSL(t *testing.T) {
	b := ResourceBinding{Class: ClassTexture, Slot: 3, HasRegister: true}
	slot, ok := b.EffectiveSlot(LangHLSL)
	if !ok {
		t.Fatal("expected a slot for an explicit register")
	}
	if slot != "t3,space0" {
		t.Errorf("expected %q, got %q", "t3,space0", slot)
	}
}

func TestEffectiveSlotGLSLNamespacesByClass(t *testing.T) {
	tex := ResourceBinding{Class: ClassTexture, Layout: 0, HasLayout: true}
	ubo := ResourceBinding{Class: ClassUniformBuffer, Layout: 0, HasLayout: true}
	texSlot, _ := tex.EffectiveSlot(LangGLSL)
	uboSlot, _ := ubo.EffectiveSlot(LangGLSL)
	if texSlot == uboSlot {
		t.Errorf("expected distinct namespaces, both got %q", texSlot)
	}
}

func TestEffectiveSlotISF(t *testing.T) {
	b := ResourceBinding{Group: 0, Binding: 0, HasGroupBinding: true}
	if _, ok := b.EffectiveSlot(LangISF); ok {
		t.Error("expected no slot identity in ISF; inputs bind by name")
	}
}

func TestRegisterClass(t *testing.T) {
	cases := []struct {
		class ResourceClass
		want  byte
	}{
		{ClassUniformBuffer, 'b'},
		{ClassStorageBuffer, 'u'},
		{ClassTexture, 't'},
		{ClassSampler, 's'},
	}
	for _, c := range cases {
		if got := c.class.RegisterClass(); got != c.want {
			t.Errorf("%s: expected %c, got %c", c.class, c.want, got)
		}
	}
}

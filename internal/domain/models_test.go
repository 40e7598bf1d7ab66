package domain

import (
	"errors"
	"testing"
)

func TestFrequencyTable(t *testing.T) {
	t.Run("Add накапливает итог и разбивку по отправителям", func(t *testing.T) {
		table := NewFrequencyTable()
		table.Add("привет", "Alice")
		table.Add("привет", "Bob")
		table.Add("привет", "Alice")
		table.Add("пока", "Bob")

		entry, ok := table.Get("привет")
		if !ok {
			t.Fatal("Ожидалась запись для 'привет'")
		}
		if entry.Total != 3 {
			t.Errorf("Ожидался итог 3, получено %d", entry.Total)
		}
		if entry.Breakdown["Alice"] != 2 || entry.Breakdown["Bob"] != 1 {
			t.Errorf("Неожиданная разбивка: %v", entry.Breakdown)
		}
		if table.Len() != 2 {
			t.Errorf("Ожидалось 2 ключа, получено %d", table.Len())
		}
	})

	t.Run("Entries сохраняет порядок обнаружения", func(t *testing.T) {
		table := NewFrequencyTable()
		for _, k := range []string{"b", "a", "c", "a"} {
			table.Add(k, "Alice")
		}

		entries := table.Entries()
		keys := []string{entries[0].Key, entries[1].Key, entries[2].Key}
		if keys[0] != "b" || keys[1] != "a" || keys[2] != "c" {
			t.Errorf("Ожидался порядок [b a c], получено %v", keys)
		}
	})

	t.Run("Итог всегда равен сумме разбивки", func(t *testing.T) {
		table := NewFrequencyTable()
		senders := []string{"Alice", "Bob", "Carol"}
		for i := 0; i < 50; i++ {
			table.Add([]string{"x", "y", "z"}[i%3], senders[i%2+i%3/2])
		}

		for _, e := range table.Entries() {
			sum := 0
			for _, v := range e.Breakdown {
				sum += v
			}
			if sum != e.Total {
				t.Errorf("Ключ %q: итог %d, сумма разбивки %d", e.Key, e.Total, sum)
			}
		}
	})

	t.Run("Entries возвращает независимые копии", func(t *testing.T) {
		table := NewFrequencyTable()
		table.Add("x", "Alice")

		entries := table.Entries()
		entries[0].Breakdown["Alice"] = 100

		entry, _ := table.Get("x")
		if entry.Breakdown["Alice"] != 1 {
			t.Error("Изменение копии не должно влиять на таблицу")
		}
	})
}

func TestParseWindow(t *testing.T) {
	testCases := []struct {
		input   string
		want    Window
		wantErr bool
	}{
		{"", WindowAll, false},
		{"all", WindowAll, false},
		{"Week", WindowWeek, false},
		{" month ", WindowMonth, false},
		{"year", WindowYear, false},
		{"decade", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseWindow(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidWindow) {
					t.Errorf("Ожидалась ErrInvalidWindow, получено %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Неожиданная ошибка: %v", err)
			}
			if got != tc.want {
				t.Errorf("Ожидалось %q, получено %q", tc.want, got)
			}
		})
	}
}

func TestAggregateParticipant(t *testing.T) {
	agg := &Aggregate{Participants: []*ParticipantStat{{Name: "Alice"}, {Name: "Bob"}}}

	if p := agg.Participant("Bob"); p == nil || p.Name != "Bob" {
		t.Errorf("Ожидался участник Bob, получено %+v", p)
	}
	if p := agg.Participant("Mallory"); p != nil {
		t.Errorf("Ожидался nil для неизвестного участника, получено %+v", p)
	}
}

package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("public_id", "opponent_name").
		From("pools").
		Where(Eq("public_id", "p1"), IsNull("result_home")).
		OrderBy("scheduled_at").
		Limit(1).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT public_id, opponent_name FROM pools WHERE public_id = $1 AND result_home IS NULL ORDER BY scheduled_at LIMIT 1"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "p1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_Join(t *testing.T) {
	query, args, err := Select("p.home_goals", "pa.display_name").
		From("predictions p").
		Join("participants pa ON pa.public_id = p.participant_public_id").
		Where(Eq("p.pool_public_id", "p1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT p.home_goals, pa.display_name FROM predictions p JOIN participants pa ON pa.public_id = p.participant_public_id WHERE p.pool_public_id = $1"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("participants").
		Columns("public_id", "display_name").
		Values("u1", "name-1").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO participants (public_id, display_name) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "u1" || args[1] != "name-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("participants").
		Set("display_name", "new").
		SetExpr("total_points", "total_points + ?", 3).
		SetExpr("updated_at", "NOW()").
		Where(Eq("public_id", "u1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE participants SET display_name = $1, total_points = total_points + $2, updated_at = NOW() WHERE public_id = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "new" || args[1] != 3 || args[2] != "u1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("pools").
		Where(Eq("public_id", "p1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}

	wantQuery := "DELETE FROM pools WHERE public_id = $1"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "p1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder_RequiresConditions(t *testing.T) {
	if _, _, err := DeleteFrom("pools").ToSQL(); err == nil {
		t.Fatal("expected error for delete without conditions")
	}
}
